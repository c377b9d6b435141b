package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts leave the API as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Order kinds. A purchase is owed to a supplier, a sale is owed by a customer.
const (
	OrderKindPurchase = "purchase"
	OrderKindSale     = "sale"
)

// Payment status constants
const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

// Product constants
const (
	ProductPetrol    = "petrol"
	ProductHiOctane  = "hi-octane"
	ProductDiesel    = "diesel"
	ProductMobileOil = "mobile oil"
	ProductOther     = "other"
)

// Order is a purchase from a supplier or a sale to a customer. PartyName is
// free text matched by exact equality.
type Order struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Kind           string           `gorm:"size:10;not null;index:idx_orders_party,priority:1" json:"kind"`
	PartyName      string           `gorm:"not null;index:idx_orders_party,priority:2" json:"party_name"`
	Product        string           `gorm:"size:20;not null" json:"product"`
	Liters         *decimal.Decimal `gorm:"type:numeric" json:"liters,omitempty"`
	RatePerLitre   *decimal.Decimal `gorm:"type:numeric" json:"rate_per_litre,omitempty"`
	TotalAmount    decimal.Decimal  `gorm:"type:numeric;not null" json:"total_amount"`
	PaidAmount     decimal.Decimal  `gorm:"type:numeric;not null;default:0" json:"paid_amount"`
	PaymentStatus  string           `gorm:"size:10;not null;default:unpaid;index" json:"payment_status"`
	Notes          *string          `gorm:"type:text" json:"notes"`
	AttachmentPath *string          `json:"-"` // Deposit slip (purchase) or sale image
	Date           time.Time        `gorm:"not null;index" json:"date"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// ClampedPaid returns min(PaidAmount, TotalAmount), floored at zero. Stored
// rows may violate the paid <= total invariant; every read goes through here.
func (o *Order) ClampedPaid() decimal.Decimal {
	paid := decimal.Min(o.PaidAmount, o.TotalAmount)
	if paid.IsNegative() {
		return decimal.Zero
	}
	return paid
}

// Balance returns the outstanding amount after clamping.
func (o *Order) Balance() decimal.Decimal {
	return o.TotalAmount.Sub(o.ClampedPaid())
}

// IsOutstanding reports whether the stored status marks the order as owing.
func (o *Order) IsOutstanding() bool {
	return o.PaymentStatus == PaymentStatusUnpaid || o.PaymentStatus == PaymentStatusPartial
}

// DeriveStatus returns the status consistent with paid relative to total.
func DeriveStatus(paid, total decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	case paid.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusUnpaid
	}
}

// IsValidPaymentStatus returns true for unpaid, partial and paid
func IsValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// IsValidProduct returns true for the products the station trades
func IsValidProduct(product string) bool {
	switch product {
	case ProductPetrol, ProductHiOctane, ProductDiesel, ProductMobileOil, ProductOther:
		return true
	}
	return false
}

// IsValidOrderKind returns true for purchase and sale
func IsValidOrderKind(kind string) bool {
	return kind == OrderKindPurchase || kind == OrderKindSale
}

// OrderResponse is the JSON response format for orders. PaidAmount and
// Balance are clamped and rounded for presentation.
type OrderResponse struct {
	ID            uint             `json:"id"`
	Kind          string           `json:"kind"`
	PartyName     string           `json:"party_name"`
	Product       string           `json:"product"`
	Liters        *decimal.Decimal `json:"liters,omitempty"`
	RatePerLitre  *decimal.Decimal `json:"rate_per_litre,omitempty"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	PaidAmount    decimal.Decimal  `json:"paid_amount"`
	Balance       decimal.Decimal  `json:"balance"`
	PaymentStatus string           `json:"payment_status"`
	Notes         *string          `json:"notes"`
	HasAttachment bool             `json:"has_attachment"`
	Date          time.Time        `json:"date"`
}

// ToResponse converts Order to OrderResponse
func (o *Order) ToResponse() OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		Kind:          o.Kind,
		PartyName:     o.PartyName,
		Product:       o.Product,
		Liters:        o.Liters,
		RatePerLitre:  o.RatePerLitre,
		TotalAmount:   o.TotalAmount.Round(2),
		PaidAmount:    o.ClampedPaid().Round(2),
		Balance:       o.Balance().Round(2),
		PaymentStatus: o.PaymentStatus,
		Notes:         o.Notes,
		HasAttachment: o.AttachmentPath != nil && *o.AttachmentPath != "",
		Date:          o.Date,
	}
}
