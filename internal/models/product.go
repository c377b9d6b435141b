package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product units
const (
	UnitLitre = "litre"
	UnitPiece = "unit"
)

// Product is a catalog entry for a fuel the station trades. Orders carry
// the product name as text; "other" orders have no catalog entry.
type Product struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"size:20;uniqueIndex;not null" json:"name"`
	Description *string          `gorm:"type:text" json:"description"`
	BaseRate    *decimal.Decimal `gorm:"type:numeric" json:"base_rate"`
	Unit        string           `gorm:"size:10;not null;default:litre" json:"unit"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// IsCatalogProduct returns true for names that may be registered in the catalog
func IsCatalogProduct(name string) bool {
	switch name {
	case ProductPetrol, ProductHiOctane, ProductDiesel, ProductMobileOil:
		return true
	}
	return false
}

// IsValidUnit returns true for litre and unit
func IsValidUnit(unit string) bool {
	return unit == UnitLitre || unit == UnitPiece
}
