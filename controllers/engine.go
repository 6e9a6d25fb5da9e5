package controllers

import (
	"context"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/kendall-kelly/quotation-allocation-api/services"
)

// Engine is the set of operations exposed over HTTP. *services.Engine
// implements it.
type Engine interface {
	CreateQuotation(ctx context.Context, customerID uint) (uint, error)
	QuorumStatus(ctx context.Context, quotationID uint) (*services.QuorumStatus, error)
	CompareQuotation(ctx context.Context, quotationID uint) (*services.Comparison, error)
	Allocate(ctx context.Context, quotationID uint) (*services.AllocationResult, error)
	PendingResponses(ctx context.Context, distributorID uint) ([]services.PendingResponse, error)
	SubmitResponse(ctx context.Context, distributorID uint, bids []services.Bid) (*services.SubmissionResult, error)
	ConfirmOrder(ctx context.Context, orderID uint) (*services.TransitionResult, error)
	CancelOrder(ctx context.Context, orderID uint, reason string) (*services.TransitionResult, error)
	DeliverOrder(ctx context.Context, orderID uint) (*services.TransitionResult, error)
	OrderStatusHistory(ctx context.Context, orderID uint) ([]services.StatusEvent, error)
	NotifyOrder(ctx context.Context, orderID uint, message string) error
	ListNotifications(ctx context.Context, customerID uint) ([]models.Notification, error)
	UnreadCount(ctx context.Context, customerID uint) (int64, error)
}

var _ Engine = (*services.Engine)(nil)
