package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/quotation-allocation-api/services"
)

// CancelOrderRequest represents the optional request body for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// NotifyOrderRequest represents the request body for an ad-hoc order update
type NotifyOrderRequest struct {
	Message string `json:"message" binding:"required"`
}

// OrderController serves order lifecycle endpoints
type OrderController struct {
	engine Engine
}

// NewOrderController creates an order controller
func NewOrderController(engine Engine) *OrderController {
	return &OrderController{engine: engine}
}

// ConfirmOrder handles PUT /api/v1/orders/:id/confirm
func (oc *OrderController) ConfirmOrder(c *gin.Context) {
	orderID, ok := pathID(c, "order id")
	if !ok {
		return
	}

	result, err := oc.engine.ConfirmOrder(c.Request.Context(), orderID)
	oc.respondTransition(c, result, err)
}

// CancelOrder handles PUT /api/v1/orders/:id/cancel
func (oc *OrderController) CancelOrder(c *gin.Context) {
	orderID, ok := pathID(c, "order id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	result, err := oc.engine.CancelOrder(c.Request.Context(), orderID, req.Reason)
	oc.respondTransition(c, result, err)
}

// DeliverOrder handles PUT /api/v1/orders/:id/deliver
func (oc *OrderController) DeliverOrder(c *gin.Context) {
	orderID, ok := pathID(c, "order id")
	if !ok {
		return
	}

	result, err := oc.engine.DeliverOrder(c.Request.Context(), orderID)
	oc.respondTransition(c, result, err)
}

func (oc *OrderController) respondTransition(c *gin.Context, result *services.TransitionResult, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result, result.NotificationWarning)
}

// GetHistory handles GET /api/v1/orders/:id/history
func (oc *OrderController) GetHistory(c *gin.Context) {
	orderID, ok := pathID(c, "order id")
	if !ok {
		return
	}

	history, err := oc.engine.OrderStatusHistory(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{"order_id": orderID, "history": history})
}

// NotifyOrder handles POST /api/v1/orders/:id/notify - sends a custom update to the customer
func (oc *OrderController) NotifyOrder(c *gin.Context) {
	orderID, ok := pathID(c, "order id")
	if !ok {
		return
	}

	var req NotifyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := oc.engine.NotifyOrder(c.Request.Context(), orderID, req.Message); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{"order_id": orderID})
}
