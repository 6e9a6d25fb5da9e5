package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/quotation-allocation-api/services"
	"github.com/shopspring/decimal"
)

// BidRequest is one bid in a submission
type BidRequest struct {
	ResponseID        uint            `json:"response_id" binding:"required"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
	AvailableQuantity int             `json:"available_quantity"`
	DeliveryDays      int             `json:"delivery_days"`
}

// SubmitResponsesRequest represents the request body for submitting bids
type SubmitResponsesRequest struct {
	Bids []BidRequest `json:"bids" binding:"required,min=1,dive"`
}

// ResponseController serves distributor bid endpoints
type ResponseController struct {
	engine Engine
}

// NewResponseController creates a response controller
func NewResponseController(engine Engine) *ResponseController {
	return &ResponseController{engine: engine}
}

// ListPendingResponses handles GET /api/v1/distributors/:id/responses
func (rc *ResponseController) ListPendingResponses(c *gin.Context) {
	distributorID, ok := pathID(c, "distributor id")
	if !ok {
		return
	}

	pending, err := rc.engine.PendingResponses(c.Request.Context(), distributorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"distributor_id": distributorID,
		"responses":      pending,
	})
}

// SubmitResponses handles POST /api/v1/distributors/:id/responses
func (rc *ResponseController) SubmitResponses(c *gin.Context) {
	distributorID, ok := pathID(c, "distributor id")
	if !ok {
		return
	}

	var req SubmitResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bids := make([]services.Bid, 0, len(req.Bids))
	for _, b := range req.Bids {
		bids = append(bids, services.Bid{
			ResponseID:        b.ResponseID,
			PricePerUnit:      b.PricePerUnit,
			AvailableQuantity: b.AvailableQuantity,
			DeliveryDays:      b.DeliveryDays,
		})
	}

	result, err := rc.engine.SubmitResponse(c.Request.Context(), distributorID, bids)
	if err != nil {
		respondError(c, err)
		return
	}

	warnings := []error{result.AllocationWarning}
	if result.Allocation != nil {
		warnings = append(warnings, result.Allocation.NotificationWarning)
	}
	respondData(c, http.StatusOK, result, warnings...)
}
