package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/rkco/fuel-ledger/pkg/logger"

	"gorm.io/gorm"
)

// ProductService manages the fuel catalog
type ProductService struct {
	repo     repository.ProductRepository
	auditSvc *AuditService
}

func NewProductService(repo repository.ProductRepository, auditSvc *AuditService) *ProductService {
	return &ProductService{repo: repo, auditSvc: auditSvc}
}

// List returns the catalog sorted by name
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.repo.List(ctx)
}

// Create registers a catalog product. Each name may be registered once.
func (s *ProductService) Create(ctx context.Context, product *models.Product, actorID *uint) error {
	product.Name = strings.ToLower(strings.TrimSpace(product.Name))
	if !models.IsCatalogProduct(product.Name) {
		return validationError("name must be petrol, hi-octane, diesel or mobile oil")
	}
	if product.Unit == "" {
		product.Unit = models.UnitLitre
	}
	if !models.IsValidUnit(product.Unit) {
		return validationError("unit must be litre or unit")
	}
	if product.BaseRate != nil && product.BaseRate.IsNegative() {
		return validationError("base rate cannot be negative")
	}

	if _, err := s.repo.FindByName(ctx, product.Name); err == nil {
		return fmt.Errorf("%w: product %q exists", ErrDuplicate, product.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateProduct) {
			return fmt.Errorf("%w: product %q exists", ErrDuplicate, product.Name)
		}
		return err
	}

	if s.auditSvc != nil {
		if err := s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "Product", product.ID,
			fmt.Sprintf("Product created: %s (%s)", product.Name, product.Unit), "", ""); err != nil {
			logger.Error("Failed to audit product", "product", product.Name, "error", err)
		}
	}
	return nil
}
