package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NotificationController serves customer notifications
type NotificationController struct {
	engine Engine
}

// NewNotificationController creates a notification controller
func NewNotificationController(engine Engine) *NotificationController {
	return &NotificationController{engine: engine}
}

// ListNotifications handles GET /api/v1/customers/:id/notifications
func (nc *NotificationController) ListNotifications(c *gin.Context) {
	customerID, ok := pathID(c, "customer id")
	if !ok {
		return
	}

	notifications, err := nc.engine.ListNotifications(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	unread, err := nc.engine.UnreadCount(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}
