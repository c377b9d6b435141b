package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party type constants
const (
	PartyTypeCustomer = "customer"
	PartyTypeSupplier = "supplier"
)

// IsValidPartyType returns true for customer and supplier
func IsValidPartyType(partyType string) bool {
	return partyType == PartyTypeCustomer || partyType == PartyTypeSupplier
}

// OrderKindForParty maps a party type to the kind of order it settles:
// customers pay down sales, suppliers are paid for purchases.
func OrderKindForParty(partyType string) string {
	if partyType == PartyTypeSupplier {
		return OrderKindPurchase
	}
	return OrderKindSale
}

// PartyTypeForKind is the inverse of OrderKindForParty
func PartyTypeForKind(kind string) string {
	if kind == OrderKindPurchase {
		return PartyTypeSupplier
	}
	return PartyTypeCustomer
}

// PaymentReceipt records one lump-sum payment and how it was spread across
// the party's orders. Receipts are append-only.
type PaymentReceipt struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Reference    string          `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	PartyType    string          `gorm:"size:10;not null;index:idx_receipts_party,priority:1" json:"party_type"`
	PartyName    string          `gorm:"not null;index:idx_receipts_party,priority:2" json:"party_name"`
	Amount       decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Allocated    decimal.Decimal `gorm:"type:numeric;not null" json:"allocated"`
	Remaining    decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"remaining"`
	Notes        *string         `gorm:"type:text" json:"notes"`
	RecordedByID *uint           `gorm:"index" json:"recorded_by_id"`
	Date         time.Time       `gorm:"not null;index" json:"date"`
	CreatedAt    time.Time       `json:"created_at"`

	// Associations
	Allocations []ReceiptAllocation `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"allocations"`
}

// TableName specifies the table name for PaymentReceipt
func (PaymentReceipt) TableName() string {
	return "payment_receipts"
}

// IsPartial returns true when part of the payment found no order to settle
func (r *PaymentReceipt) IsPartial() bool {
	return r.Remaining.IsPositive()
}

// ReceiptAllocation is one order touched by a receipt, kept in payment order.
type ReceiptAllocation struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	ReceiptID    uint            `gorm:"not null;index" json:"-"`
	Position     int             `gorm:"not null" json:"-"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	Allocated    decimal.Decimal `gorm:"type:numeric;not null" json:"allocated"`
	PreviousPaid decimal.Decimal `gorm:"type:numeric;not null" json:"previous_paid"`
	NewPaid      decimal.Decimal `gorm:"type:numeric;not null" json:"new_paid"`
	Status       string          `gorm:"size:10;not null" json:"status"`
}

// TableName specifies the table name for ReceiptAllocation
func (ReceiptAllocation) TableName() string {
	return "receipt_allocations"
}

// ReceiptResponse is the JSON response format for receipts
type ReceiptResponse struct {
	ID          uint                 `json:"id"`
	Reference   string               `json:"reference"`
	PartyType   string               `json:"party_type"`
	PartyName   string               `json:"party_name"`
	Amount      decimal.Decimal      `json:"amount"`
	Allocated   decimal.Decimal      `json:"allocated"`
	Remaining   decimal.Decimal      `json:"remaining"`
	Warning     bool                 `json:"warning"`
	Notes       *string              `json:"notes"`
	Date        time.Time            `json:"date"`
	Allocations []AllocationResponse `json:"allocations"`
}

// AllocationResponse is the JSON response format for a single allocation
type AllocationResponse struct {
	OrderID      uint            `json:"orderId"`
	Allocated    decimal.Decimal `json:"allocated"`
	PreviousPaid decimal.Decimal `json:"previousPaid"`
	NewPaid      decimal.Decimal `json:"newPaid"`
	Status       string          `json:"status"`
}

// ToResponse converts ReceiptAllocation to AllocationResponse
func (a *ReceiptAllocation) ToResponse() AllocationResponse {
	return AllocationResponse{
		OrderID:      a.OrderID,
		Allocated:    a.Allocated.Round(2),
		PreviousPaid: a.PreviousPaid.Round(2),
		NewPaid:      a.NewPaid.Round(2),
		Status:       a.Status,
	}
}

// ToResponse converts PaymentReceipt to ReceiptResponse
func (r *PaymentReceipt) ToResponse() ReceiptResponse {
	allocations := make([]AllocationResponse, 0, len(r.Allocations))
	for i := range r.Allocations {
		allocations = append(allocations, r.Allocations[i].ToResponse())
	}
	return ReceiptResponse{
		ID:          r.ID,
		Reference:   r.Reference,
		PartyType:   r.PartyType,
		PartyName:   r.PartyName,
		Amount:      r.Amount.Round(2),
		Allocated:   r.Allocated.Round(2),
		Remaining:   r.Remaining.Round(2),
		Warning:     r.IsPartial(),
		Notes:       r.Notes,
		Date:        r.Date,
		Allocations: allocations,
	}
}
