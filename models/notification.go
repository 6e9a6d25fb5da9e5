package models

import (
	"time"
)

// Notification is an append-only message addressed to a customer
type Notification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	OrderID    *uint     `gorm:"index" json:"order_id"` // nil for events without an order
	Message    string    `gorm:"type:text;not null" json:"message"`
	Read       bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

// All lists every model managed by the application, in migration order
func All() []interface{} {
	return []interface{}{
		&Customer{},
		&Distributor{},
		&Product{},
		&CartItem{},
		&Quotation{},
		&QuotationItem{},
		&DistributorResponse{},
		&Order{},
		&OrderItem{},
		&Notification{},
	}
}
