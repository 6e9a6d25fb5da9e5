package models

import (
	"time"
)

// Customer represents a buyer who requests quotations
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// Distributor represents a supplier on the bidding panel.
// Every distributor present when a quotation is broadcast receives one
// response placeholder per quotation item.
type Distributor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Distributor model
func (Distributor) TableName() string {
	return "distributors"
}

// Contact returns the phone number when present, otherwise the email
func (d Distributor) Contact() string {
	if d.Phone != "" {
		return d.Phone
	}
	return d.Email
}
