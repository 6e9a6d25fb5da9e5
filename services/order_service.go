package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/kendall-kelly/quotation-allocation-api/repository"
	"github.com/sirupsen/logrus"
)

// TransitionResult describes an order after a lifecycle transition
type TransitionResult struct {
	OrderID             uint               `json:"order_id"`
	Status              models.OrderStatus `json:"status"`
	ConfirmedAt         *time.Time         `json:"confirmed_at,omitempty"`
	NotificationWarning error              `json:"-"`
}

// StatusEvent is one step in an order's history
type StatusEvent struct {
	Status      string     `json:"status"`
	At          *time.Time `json:"at,omitempty"`
	Description string     `json:"description"`
}

// OrderService drives orders through Pending, Confirmed, Delivered and Cancelled
type OrderService struct {
	base
	notifier *NotificationService
}

type orderTransition struct {
	action string
	from   []models.OrderStatus
	to     models.OrderStatus
	event  string
	notify func(ctx context.Context, order *models.Order, distributor *models.Distributor) error
}

// ConfirmOrder accepts a Pending order on behalf of its distributor
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID uint) (*TransitionResult, error) {
	return s.transition(ctx, orderID, orderTransition{
		action: "confirm",
		from:   []models.OrderStatus{models.OrderPending},
		to:     models.OrderConfirmed,
		event:  AuditOrderConfirmed,
		notify: s.notifier.OrderConfirmed,
	})
}

// CancelOrder cancels a Pending or Confirmed order. An empty reason falls
// back to DefaultCancelReason.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, reason string) (*TransitionResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}
	return s.transition(ctx, orderID, orderTransition{
		action: "cancel",
		from:   []models.OrderStatus{models.OrderPending, models.OrderConfirmed},
		to:     models.OrderCancelled,
		event:  AuditOrderCancelled,
		notify: func(ctx context.Context, order *models.Order, distributor *models.Distributor) error {
			return s.notifier.OrderCancelled(ctx, order, distributor, reason)
		},
	})
}

// DeliverOrder marks a Confirmed order as delivered
func (s *OrderService) DeliverOrder(ctx context.Context, orderID uint) (*TransitionResult, error) {
	return s.transition(ctx, orderID, orderTransition{
		action: "deliver",
		from:   []models.OrderStatus{models.OrderConfirmed},
		to:     models.OrderDelivered,
		event:  AuditOrderDelivered,
		notify: s.notifier.OrderDelivered,
	})
}

func (s *OrderService) transition(ctx context.Context, orderID uint, t orderTransition) (*TransitionResult, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	update := repository.OrderTransition{From: t.from, To: t.to}
	if t.to == models.OrderConfirmed {
		confirmedAt := s.now()
		update.ConfirmedAt = &confirmedAt
	}

	changed, err := s.repo.TransitionOrder(ctx, orderID, update)
	if err != nil {
		return nil, transient(t.action+" order", err)
	}
	if !changed {
		order, err := s.repo.FindOrder(ctx, orderID)
		if err != nil {
			return nil, storeError(t.action+" order", "order", orderID, err)
		}
		return nil, &InvalidStateError{
			Code:     CodeIllegalState,
			Resource: "order",
			ID:       orderID,
			Current:  string(order.Status),
			Action:   t.action,
		}
	}

	result := &TransitionResult{OrderID: orderID, Status: t.to, ConfirmedAt: update.ConfirmedAt}
	log := s.logger.WithFields(logrus.Fields{"order_id": orderID, "status": t.to})

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		log.WithError(err).Warn("Failed to reload order for notification")
		result.NotificationWarning = fmt.Errorf("failed to reload order: %w", err)
		return result, nil
	}
	result.ConfirmedAt = order.ConfirmedAt

	log = log.WithField("distributor_id", order.DistributorID)
	log.Info("Order status changed")
	s.audit.Record(AuditEntry{
		Event:         t.event,
		QuotationID:   order.QuotationID,
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		DistributorID: order.DistributorID,
		Detail:        fmt.Sprintf("order %s", strings.ToLower(string(t.to))),
	})

	distributor, err := s.repo.FindDistributor(ctx, order.DistributorID)
	if err != nil {
		log.WithError(err).Warn("Failed to load distributor for notification")
		result.NotificationWarning = fmt.Errorf("failed to load distributor: %w", err)
		return result, nil
	}
	result.NotificationWarning = t.notify(ctx, order, distributor)
	return result, nil
}

// OrderStatusHistory lists the steps an order has gone through, oldest first
func (s *OrderService) OrderStatusHistory(ctx context.Context, orderID uint) ([]StatusEvent, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, storeError("order history", "order", orderID, err)
	}
	return statusHistory(order), nil
}

func statusHistory(order *models.Order) []StatusEvent {
	createdAt := order.CreatedAt
	history := []StatusEvent{{
		Status:      "Created",
		At:          &createdAt,
		Description: "Order created and assigned to distributor",
	}}

	if order.ConfirmedAt != nil {
		history = append(history, StatusEvent{
			Status:      string(models.OrderConfirmed),
			At:          order.ConfirmedAt,
			Description: "Order confirmed by distributor",
		})
	}

	updatedAt := order.UpdatedAt
	switch order.Status {
	case models.OrderDelivered:
		history = append(history, StatusEvent{
			Status:      string(models.OrderDelivered),
			At:          &updatedAt,
			Description: "Order delivered to customer",
		})
	case models.OrderCancelled:
		history = append(history, StatusEvent{
			Status:      string(models.OrderCancelled),
			At:          &updatedAt,
			Description: "Order cancelled",
		})
	}
	return history
}

// NotifyOrder sends a free-form update about an order to its customer
func (s *OrderService) NotifyOrder(ctx context.Context, orderID uint, message string) error {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	message = strings.TrimSpace(message)
	if message == "" {
		return &ValidationError{Code: CodeEmptyMessage, Message: "Message is required"}
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return storeError("notify order", "order", orderID, err)
	}
	if err := s.notifier.OrderUpdate(ctx, order, message); err != nil {
		return transient("notify order", err)
	}

	s.audit.Record(AuditEntry{
		Event:      AuditOrderNotified,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Detail:     "order update sent",
	})
	return nil
}
