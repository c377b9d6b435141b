package repository

import (
	"context"
	"errors"

	"github.com/rkco/fuel-ledger/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateProduct is returned when the catalog already lists the product
var ErrDuplicateProduct = errors.New("product already exists")

// ProductRepository manages the product catalog
type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Create(product).Error
	if isDuplicateKeyError(err, "idx_products_name") {
		return ErrDuplicateProduct
	}
	return err
}
