package services

import (
	"context"
	"strings"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
)

const partySearchLimit = 10

// PartyService manages the customer and supplier directories
type PartyService struct {
	customerRepo repository.PartyRepository
	supplierRepo repository.PartyRepository
}

func NewPartyService(customerRepo, supplierRepo repository.PartyRepository) *PartyService {
	return &PartyService{customerRepo: customerRepo, supplierRepo: supplierRepo}
}

func (s *PartyService) repo(partyType string) (repository.PartyRepository, error) {
	switch partyType {
	case models.PartyTypeCustomer:
		return s.customerRepo, nil
	case models.PartyTypeSupplier:
		return s.supplierRepo, nil
	}
	return nil, ErrInvalidPartyType
}

func (s *PartyService) List(ctx context.Context, partyType string) ([]models.Party, error) {
	repo, err := s.repo(partyType)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

// Search returns up to ten parties whose name contains term
func (s *PartyService) Search(ctx context.Context, partyType, term string) ([]models.Party, error) {
	repo, err := s.repo(partyType)
	if err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Party{}, nil
	}
	return repo.Search(ctx, term, partySearchLimit)
}

// Create returns the party with this name, registering it with the given
// contact details when it is new.
func (s *PartyService) Create(ctx context.Context, partyType string, party *models.Party) (*models.Party, error) {
	repo, err := s.repo(partyType)
	if err != nil {
		return nil, err
	}
	party.Name = strings.TrimSpace(party.Name)
	if party.Name == "" {
		return nil, validationError("name is required")
	}
	return repo.FindOrCreate(ctx, party)
}
