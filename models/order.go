package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderConfirmed OrderStatus = "Confirmed"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// Order is the result of allocating a quotation to a single distributor
type Order struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	QuotationID           uint            `gorm:"not null;uniqueIndex" json:"quotation_id"` // at most one order per quotation
	CustomerID            uint            `gorm:"not null;index" json:"customer_id"`
	DistributorID         uint            `gorm:"not null;index" json:"distributor_id"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status                OrderStatus     `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	EstimatedDeliveryDate *time.Time      `json:"estimated_delivery_date"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	ConfirmedAt           *time.Time      `json:"confirmed_at"`
	Items                 []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// ItemCount returns the total number of units across all order lines
func (o Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// OrderItem is one line of an order, priced at allocation time
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	ProductID    uint            `gorm:"not null" json:"product_id"`
	Quantity     int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	PricePerUnit decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_per_unit"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal returns quantity multiplied by the locked unit price
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PricePerUnit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
