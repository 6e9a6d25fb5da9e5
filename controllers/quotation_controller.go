package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// QuotationController serves quotation endpoints
type QuotationController struct {
	engine Engine
}

// NewQuotationController creates a quotation controller
func NewQuotationController(engine Engine) *QuotationController {
	return &QuotationController{engine: engine}
}

// CreateQuotation handles POST /api/v1/customers/:id/quotations - turns the cart into a quotation
func (qc *QuotationController) CreateQuotation(c *gin.Context) {
	customerID, ok := pathID(c, "customer id")
	if !ok {
		return
	}

	quotationID, err := qc.engine.CreateQuotation(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{"quotation_id": quotationID})
}

// GetQuorum handles GET /api/v1/quotations/:id/quorum
func (qc *QuotationController) GetQuorum(c *gin.Context) {
	quotationID, ok := pathID(c, "quotation id")
	if !ok {
		return
	}

	status, err := qc.engine.QuorumStatus(c.Request.Context(), quotationID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, status)
}

// GetComparison handles GET /api/v1/quotations/:id/comparison
func (qc *QuotationController) GetComparison(c *gin.Context) {
	quotationID, ok := pathID(c, "quotation id")
	if !ok {
		return
	}

	comparison, err := qc.engine.CompareQuotation(c.Request.Context(), quotationID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, comparison)
}

// Allocate handles POST /api/v1/quotations/:id/allocate - finalizes a fully answered quotation
func (qc *QuotationController) Allocate(c *gin.Context) {
	quotationID, ok := pathID(c, "quotation id")
	if !ok {
		return
	}

	result, err := qc.engine.Allocate(c.Request.Context(), quotationID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, result, result.NotificationWarning)
}
