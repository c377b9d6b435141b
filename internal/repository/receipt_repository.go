package repository

import (
	"context"

	"github.com/rkco/fuel-ledger/internal/models"

	"gorm.io/gorm"
)

// ReceiptRepository is the append-only payment record store
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *models.PaymentReceipt) error
	FindByID(ctx context.Context, id uint) (*models.PaymentReceipt, error)
	List(ctx context.Context, query *ListQuery) ([]models.PaymentReceipt, int64, error)
}

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

// Create inserts the receipt and its allocations in one statement batch
func (r *receiptRepository) Create(ctx context.Context, receipt *models.PaymentReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) FindByID(ctx context.Context, id uint) (*models.PaymentReceipt, error) {
	var receipt models.PaymentReceipt
	err := r.db.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&receipt, id).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) List(ctx context.Context, query *ListQuery) ([]models.PaymentReceipt, int64, error) {
	var receipts []models.PaymentReceipt
	var total int64

	db := r.db.WithContext(ctx).Model(&models.PaymentReceipt{})

	if partyType := query.Filters["party_type"]; partyType != "" {
		db = db.Where("party_type = ?", partyType)
	}
	if partyName := query.Filters["party_name"]; partyName != "" {
		db = db.Where("party_name = ?", partyName)
	}
	if query.Filters["warning"] == "true" {
		db = db.Where("remaining > 0")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.paginate(db.Order("date DESC, id DESC")).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&receipts).Error
	return receipts, total, err
}
