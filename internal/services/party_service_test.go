package services

import (
	"context"
	"testing"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartyService_CreateOrGet(t *testing.T) {
	customers := &fakePartyRepo{}
	svc := NewPartyService(customers, &fakePartyRepo{})
	phone := "0300-1234567"

	party, err := svc.Create(context.Background(), models.PartyTypeCustomer, &models.Party{Name: "  Ali Traders ", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ali Traders", party.Name)

	again, err := svc.Create(context.Background(), models.PartyTypeCustomer, &models.Party{Name: "Ali Traders"})
	require.NoError(t, err)
	assert.Equal(t, party.ID, again.ID)
	require.NotNil(t, again.Phone)
	assert.Equal(t, phone, *again.Phone)
	assert.Len(t, customers.parties, 1)
}

func TestPartyService_Validation(t *testing.T) {
	svc := NewPartyService(&fakePartyRepo{}, &fakePartyRepo{})

	_, err := svc.Create(context.Background(), models.PartyTypeSupplier, &models.Party{Name: " "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.List(context.Background(), "vendor")
	assert.ErrorIs(t, err, ErrInvalidPartyType)
}

func TestPartyService_Search(t *testing.T) {
	suppliers := &fakePartyRepo{}
	for _, name := range []string{"Shell Depot", "PSO Depot", "Attock Petroleum"} {
		_, _ = suppliers.FindOrCreate(context.Background(), &models.Party{Name: name})
	}
	svc := NewPartyService(&fakePartyRepo{}, suppliers)

	found, err := svc.Search(context.Background(), models.PartyTypeSupplier, "depot")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = svc.Search(context.Background(), models.PartyTypeSupplier, "  ")
	require.NoError(t, err)
	assert.Empty(t, found)
}
