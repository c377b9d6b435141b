package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/rkco/fuel-ledger/internal/models"

	"gorm.io/gorm"
)

// PartyRepository manages the customer or supplier directory
type PartyRepository interface {
	FindOrCreate(ctx context.Context, party *models.Party) (*models.Party, error)
	FindByName(ctx context.Context, name string) (*models.Party, error)
	List(ctx context.Context) ([]models.Party, error)
	Search(ctx context.Context, term string, limit int) ([]models.Party, error)
}

type partyRepository struct {
	db    *gorm.DB
	table string
}

// NewCustomerRepository creates the customer directory
func NewCustomerRepository(db *gorm.DB) PartyRepository {
	return &partyRepository{db: db, table: models.Customer{}.TableName()}
}

// NewSupplierRepository creates the supplier directory
func NewSupplierRepository(db *gorm.DB) PartyRepository {
	return &partyRepository{db: db, table: models.Supplier{}.TableName()}
}

// FindOrCreate returns the party with the trimmed name, creating it with
// the given contact details when missing.
func (r *partyRepository) FindOrCreate(ctx context.Context, party *models.Party) (*models.Party, error) {
	party.Name = strings.TrimSpace(party.Name)

	existing, err := r.FindByName(ctx, party.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Table(r.table).Create(party).Error; err != nil {
		// Lost a race with a concurrent insert of the same name
		if isDuplicateKeyError(err, r.table+"_name_key") || isDuplicateKeyError(err, "idx_"+r.table+"_name") {
			return r.FindByName(ctx, party.Name)
		}
		return nil, err
	}
	return party, nil
}

func (r *partyRepository) FindByName(ctx context.Context, name string) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("name = ?", strings.TrimSpace(name)).
		First(&party).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *partyRepository) List(ctx context.Context) ([]models.Party, error) {
	var parties []models.Party
	err := r.db.WithContext(ctx).Table(r.table).Order("name ASC").Find(&parties).Error
	return parties, err
}

func (r *partyRepository) Search(ctx context.Context, term string, limit int) ([]models.Party, error) {
	var parties []models.Party
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("name ILIKE ?", "%"+term+"%").
		Order("name ASC").
		Limit(limit).
		Find(&parties).Error
	return parties, err
}
