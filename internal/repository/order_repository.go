package repository

import (
	"context"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// OrderRepository is the order store for purchases and sales
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, kind string, id uint) (*models.Order, error)
	List(ctx context.Context, kind string, query *ListQuery) ([]models.Order, int64, error)
	FindByParty(ctx context.Context, kind, partyName string) ([]models.Order, error)
	FindOutstanding(ctx context.Context, kind, partyName string) ([]models.Order, error)
	FindAll(ctx context.Context, kind string) ([]models.Order, error)
	UpdatePayment(ctx context.Context, id uint, paidAmount decimal.Decimal, status string) error
	UpdateAttachment(ctx context.Context, id uint, path string) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

var orderSortColumns = map[string]bool{
	"date":         true,
	"party_name":   true,
	"total_amount": true,
	"created_at":   true,
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, kind string, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, kind string, query *ListQuery) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Order{}).Where("kind = ?", kind)

	if query.Search != "" {
		db = db.Where("party_name ILIKE ?", "%"+query.Search+"%")
	}
	if status := query.Filters["payment_status"]; status != "" {
		db = db.Where("payment_status = ?", status)
	}
	if product := query.Filters["product"]; product != "" {
		db = db.Where("product = ?", product)
	}
	if start := query.Filters["start_date"]; start != "" {
		db = db.Where("date >= ?", start)
	}
	if end := query.Filters["end_date"]; end != "" {
		db = db.Where("date < (?::date + INTERVAL '1 day')", end)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = query.orderBy(db, orderSortColumns, "date DESC, id DESC")
	err := query.paginate(db).Find(&orders).Error
	return orders, total, err
}

// FindByParty returns every order of a party, newest first
func (r *orderRepository) FindByParty(ctx context.Context, kind, partyName string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("kind = ? AND party_name = ?", kind, partyName).
		Order("date DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// FindOutstanding returns unpaid and partial orders of a party, oldest
// first. Ties on date keep insertion order.
func (r *orderRepository) FindOutstanding(ctx context.Context, kind, partyName string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("kind = ? AND party_name = ? AND payment_status IN ?", kind, partyName,
			[]string{models.PaymentStatusUnpaid, models.PaymentStatusPartial}).
		Order("date ASC, id ASC").
		Find(&orders).Error
	return orders, err
}

// FindAll returns every order of a kind, or of both kinds when kind is empty
func (r *orderRepository) FindAll(ctx context.Context, kind string) ([]models.Order, error) {
	var orders []models.Order
	db := r.db.WithContext(ctx)
	if kind != "" {
		db = db.Where("kind = ?", kind)
	}
	err := db.Order("party_name ASC, date DESC").Find(&orders).Error
	return orders, err
}

// UpdatePayment is a single-row point write of paid amount and status
func (r *orderRepository) UpdatePayment(ctx context.Context, id uint, paidAmount decimal.Decimal, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"paid_amount":    paidAmount,
			"payment_status": status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) UpdateAttachment(ctx context.Context, id uint, path string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("attachment_path", path).Error
}
