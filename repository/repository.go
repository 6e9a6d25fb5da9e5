// Package repository is the persistence boundary of the allocation engine.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// ResponseSubmission carries the values a distributor submits for one response row
type ResponseSubmission struct {
	ResponseID        uint
	DistributorID     uint
	PricePerUnit      decimal.Decimal
	AvailableQuantity int
	DeliveryDays      int
	SubmittedAt       time.Time
}

// OrderTransition describes a conditional order status change
type OrderTransition struct {
	From        []models.OrderStatus
	To          models.OrderStatus
	ConfirmedAt *time.Time
}

// Repository is the data access contract consumed by the services.
// Implementations must make Transaction atomic: either every write made
// through the transactional Repository is committed or none is.
type Repository interface {
	// Transaction runs fn against a Repository bound to a single transaction.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	FindCustomer(ctx context.Context, id uint) (*models.Customer, error)
	FindDistributor(ctx context.Context, id uint) (*models.Distributor, error)
	ListDistributors(ctx context.Context) ([]models.Distributor, error)
	FindProduct(ctx context.Context, id uint) (*models.Product, error)

	ListCartItems(ctx context.Context, customerID uint) ([]models.CartItem, error)
	ClearCart(ctx context.Context, customerID uint) error

	CreateQuotation(ctx context.Context, quotation *models.Quotation) error
	CreateQuotationItems(ctx context.Context, items []models.QuotationItem) error
	CreateDistributorResponses(ctx context.Context, responses []models.DistributorResponse) error
	FindQuotation(ctx context.Context, id uint) (*models.Quotation, error)
	ListQuotationItems(ctx context.Context, quotationID uint) ([]models.QuotationItem, error)
	// CompareAndSetQuotationStatus moves the quotation from one status to
	// another and reports whether this call performed the change.
	CompareAndSetQuotationStatus(ctx context.Context, id uint, from, to models.QuotationStatus) (bool, error)

	FindDistributorResponse(ctx context.Context, id uint) (*models.DistributorResponse, error)
	ListDistributorResponses(ctx context.Context, quotationID uint) ([]models.DistributorResponse, error)
	// ListPendingResponses returns the distributor's unsubmitted rows on
	// quotations that are still Pending.
	ListPendingResponses(ctx context.Context, distributorID uint) ([]models.DistributorResponse, error)
	// SubmitDistributorResponse records a bid on a row owned by the given
	// distributor and reports whether a row was updated.
	SubmitDistributorResponse(ctx context.Context, submission ResponseSubmission) (bool, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uint) (*models.Order, error)
	FindOrderByQuotation(ctx context.Context, quotationID uint) (*models.Order, error)
	// TransitionOrder applies the transition only if the order is currently in
	// one of the From statuses and reports whether it did.
	TransitionOrder(ctx context.Context, id uint, transition OrderTransition) (bool, error)

	CreateNotification(ctx context.Context, notification *models.Notification) error
	ListNotifications(ctx context.Context, customerID uint) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, customerID uint) (int64, error)
}
