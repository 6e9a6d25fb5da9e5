package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/kendall-kelly/quotation-allocation-api/utils"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultCancelReason is used when a cancellation carries no reason
	DefaultCancelReason = "Distributor was unable to fulfill the order"
	// SupportContact is quoted in cancellation messages
	SupportContact = "support@gadgethub.com"

	// excellentStockCoverage is the stock coverage above which availability is highlighted
	excellentStockCoverage = 50.0
)

// DeliverySpeed describes a delivery lead time in customer facing wording
func DeliverySpeed(days int) string {
	switch {
	case days <= 3:
		return "fast"
	case days <= 7:
		return "standard"
	default:
		return "extended"
	}
}

// AllocationSucceededMessage tells the customer which distributor won
func AllocationSucceededMessage(distributorName string, winner ScoredCandidate) string {
	availability := ""
	if winner.StockCoverage > excellentStockCoverage {
		availability = " with excellent stock availability"
	}
	return fmt.Sprintf(
		"Great news! We've selected %s as your best distributor based on competitive pricing (%s)%s and %s delivery (%d days). Your order is now pending distributor confirmation.",
		distributorName,
		utils.FormatMoney(winner.TotalPrice),
		availability,
		DeliverySpeed(winner.MaxDeliveryDays),
		winner.MaxDeliveryDays,
	)
}

// AllocationFailedMessage tells the customer that nobody could fulfill the quotation
func AllocationFailedMessage() string {
	return "Sorry, none of our distributors can fulfill your order at this time. Please try again later or modify your order."
}

// OrderConfirmedMessage summarizes a confirmed order
func OrderConfirmedMessage(order *models.Order, distributor *models.Distributor) string {
	return fmt.Sprintf(
		"Excellent! Your order #%d with %s (%s) has been confirmed by %s! Expected delivery: %s. Distributor contact: %s",
		order.ID,
		utils.Pluralize(order.ItemCount(), "item"),
		utils.FormatMoney(order.TotalAmount),
		distributor.Name,
		utils.FormatDate(order.EstimatedDeliveryDate),
		distributor.Contact(),
	)
}

// OrderCancelledMessage explains a cancellation and points to support
func OrderCancelledMessage(order *models.Order, distributor *models.Distributor, reason string) string {
	return fmt.Sprintf(
		"We're sorry, but your order #%d with %s (%s) has been cancelled by %s. Reason: %s. You can try placing a new order or contact our support team for assistance. Support: %s",
		order.ID,
		utils.Pluralize(order.ItemCount(), "item"),
		utils.FormatMoney(order.TotalAmount),
		distributor.Name,
		reason,
		SupportContact,
	)
}

// OrderDeliveredMessage announces a delivery and asks for a review
func OrderDeliveredMessage(order *models.Order, distributor *models.Distributor) string {
	return fmt.Sprintf(
		"Great news! Your order #%d with %s has been successfully delivered by %s! Thank you for choosing GadgetHub. Please consider leaving a review of your experience.",
		order.ID,
		utils.Pluralize(order.ItemCount(), "item"),
		distributor.Name,
	)
}

// OrderUpdateMessage wraps a free-form message about an order
func OrderUpdateMessage(orderID uint, message string) string {
	return fmt.Sprintf("Update on Order #%d: %s", orderID, message)
}

// NotificationService writes customer notifications. Emission happens after
// the state change has committed; a failed write never undoes it.
type NotificationService struct {
	base
}

// AllocationSucceeded notifies the customer about the winning distributor
func (s *NotificationService) AllocationSucceeded(ctx context.Context, order *models.Order, distributor *models.Distributor, winner ScoredCandidate) error {
	return s.emit(ctx, order.CustomerID, &order.ID, AllocationSucceededMessage(distributor.Name, winner))
}

// AllocationFailed notifies the customer that the quotation was cancelled
func (s *NotificationService) AllocationFailed(ctx context.Context, customerID uint) error {
	return s.emit(ctx, customerID, nil, AllocationFailedMessage())
}

// OrderConfirmed notifies the customer that the distributor accepted the order
func (s *NotificationService) OrderConfirmed(ctx context.Context, order *models.Order, distributor *models.Distributor) error {
	return s.emit(ctx, order.CustomerID, &order.ID, OrderConfirmedMessage(order, distributor))
}

// OrderCancelled notifies the customer that the order was cancelled
func (s *NotificationService) OrderCancelled(ctx context.Context, order *models.Order, distributor *models.Distributor, reason string) error {
	return s.emit(ctx, order.CustomerID, &order.ID, OrderCancelledMessage(order, distributor, reason))
}

// OrderDelivered notifies the customer that the order arrived
func (s *NotificationService) OrderDelivered(ctx context.Context, order *models.Order, distributor *models.Distributor) error {
	return s.emit(ctx, order.CustomerID, &order.ID, OrderDeliveredMessage(order, distributor))
}

// OrderUpdate sends an ad-hoc message about an order
func (s *NotificationService) OrderUpdate(ctx context.Context, order *models.Order, message string) error {
	return s.emit(ctx, order.CustomerID, &order.ID, OrderUpdateMessage(order.ID, message))
}

// ListNotifications returns a customer's notifications, newest first
func (s *NotificationService) ListNotifications(ctx context.Context, customerID uint) ([]models.Notification, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	notifications, err := s.repo.ListNotifications(ctx, customerID)
	if err != nil {
		return nil, transient("list notifications", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for a customer
func (s *NotificationService) UnreadCount(ctx context.Context, customerID uint) (int64, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	count, err := s.repo.CountUnreadNotifications(ctx, customerID)
	if err != nil {
		return 0, transient("count notifications", err)
	}
	return count, nil
}

func (s *NotificationService) emit(ctx context.Context, customerID uint, orderID *uint, message string) error {
	notification := &models.Notification{
		CustomerID: customerID,
		OrderID:    orderID,
		Message:    strings.TrimSpace(message),
		CreatedAt:  s.now(),
	}

	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		fields := logrus.Fields{"customer_id": customerID}
		if orderID != nil {
			fields["order_id"] = *orderID
		}
		s.logger.WithFields(fields).WithError(err).Warn("Failed to persist notification")
		return fmt.Errorf("failed to persist notification: %w", err)
	}
	return nil
}
