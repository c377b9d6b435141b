package models

import (
	"time"
)

// Party holds the contact card shared by customers and suppliers. Orders
// reference parties by name only.
type Party struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer is a party we sell to
type Customer struct {
	Party `gorm:"embedded"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// Supplier is a party we buy from
type Supplier struct {
	Party `gorm:"embedded"`
}

// TableName specifies the table name for Supplier
func (Supplier) TableName() string {
	return "suppliers"
}
