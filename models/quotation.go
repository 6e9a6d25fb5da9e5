package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotationStatus is the lifecycle state of a quotation
type QuotationStatus string

const (
	QuotationPending QuotationStatus = "Pending"
	// QuotationAllocating is held only inside the allocation transaction
	QuotationAllocating QuotationStatus = "Allocating"
	QuotationCompleted  QuotationStatus = "Completed"
	QuotationCancelled  QuotationStatus = "Cancelled"
)

// IsTerminal reports whether no further transition is possible
func (s QuotationStatus) IsTerminal() bool {
	return s == QuotationCompleted || s == QuotationCancelled
}

// Quotation is a customer's priced request for a cart snapshot
type Quotation struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CustomerID uint            `gorm:"not null;index" json:"customer_id"`
	Status     QuotationStatus `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Quotation model
func (Quotation) TableName() string {
	return "quotations"
}

// QuotationItem is an immutable copy of one cart line taken at broadcast time
type QuotationItem struct {
	ID               uint `gorm:"primaryKey" json:"id"`
	QuotationID      uint `gorm:"not null;index" json:"quotation_id"`
	ProductID        uint `gorm:"not null" json:"product_id"`
	RequiredQuantity int  `gorm:"not null;check:required_quantity > 0" json:"required_quantity"`
}

// TableName specifies the table name for the QuotationItem model
func (QuotationItem) TableName() string {
	return "quotation_items"
}

// DistributorResponse is one distributor's bid for one quotation item.
// The row is created unsubmitted at broadcast time and updated in place.
type DistributorResponse struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	QuotationID       uint                `gorm:"not null;index:idx_response_quotation_distributor,priority:1" json:"quotation_id"`
	DistributorID     uint                `gorm:"not null;index:idx_response_quotation_distributor,priority:2" json:"distributor_id"`
	ProductID         uint                `gorm:"not null" json:"product_id"`
	PricePerUnit      decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"price_per_unit"`
	AvailableQuantity *int                `json:"available_quantity"`
	DeliveryDays      *int                `json:"delivery_days"`
	Submitted         bool                `gorm:"not null;default:false" json:"submitted"`
	SubmittedAt       *time.Time          `json:"submitted_at"`
}

// TableName specifies the table name for the DistributorResponse model
func (DistributorResponse) TableName() string {
	return "distributor_responses"
}
