package controllers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every engine endpoint on the given group
func RegisterRoutes(rg *gin.RouterGroup, engine Engine) {
	quotations := NewQuotationController(engine)
	responses := NewResponseController(engine)
	orders := NewOrderController(engine)
	notifications := NewNotificationController(engine)

	customerRoutes := rg.Group("/customers/:id")
	{
		customerRoutes.POST("/quotations", quotations.CreateQuotation)
		customerRoutes.GET("/notifications", notifications.ListNotifications)
	}

	quotationRoutes := rg.Group("/quotations/:id")
	{
		quotationRoutes.GET("/quorum", quotations.GetQuorum)
		quotationRoutes.GET("/comparison", quotations.GetComparison)
		quotationRoutes.POST("/allocate", quotations.Allocate)
	}

	distributorRoutes := rg.Group("/distributors/:id")
	{
		distributorRoutes.GET("/responses", responses.ListPendingResponses)
		distributorRoutes.POST("/responses", responses.SubmitResponses)
	}

	orderRoutes := rg.Group("/orders/:id")
	{
		orderRoutes.PUT("/confirm", orders.ConfirmOrder)
		orderRoutes.PUT("/cancel", orders.CancelOrder)
		orderRoutes.PUT("/deliver", orders.DeliverOrder)
		orderRoutes.GET("/history", orders.GetHistory)
		orderRoutes.POST("/notify", orders.NotifyOrder)
	}
}
