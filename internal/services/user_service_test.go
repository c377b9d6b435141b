package services

import (
	"context"
	"testing"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"
)

func TestUserService_CreateNormalizesAndAudits(t *testing.T) {
	var stored *models.User
	users := &mockUserRepo{mockCreate: func(ctx context.Context, u *models.User) error {
		u.ID = 12
		stored = u
		return nil
	}}
	audits := &fakeAuditRepo{}
	svc := NewUserService(users, nil, nil, NewAuditService(audits))

	actor := uint(1)
	user := &models.User{Name: " Rashid ", Email: " Rashid@RKCO.app "}
	require.NoError(t, svc.Create(context.Background(), user, "long-enough", &actor))

	require.NotNil(t, stored)
	assert.Equal(t, "rashid@rkco.app", stored.Email)
	assert.Equal(t, "Rashid", stored.Name)
	assert.Equal(t, models.RoleViewer, stored.Role)
	assert.True(t, stored.Active)
	assert.True(t, VerifyPassword("long-enough", stored.EncryptedPassword))

	entries := audits.all()
	require.Len(t, entries, 1)
	assert.Equal(t, uint(12), entries[0].EntityID)
	assert.Equal(t, &actor, entries[0].UserID)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, nil, NewAuditService(&fakeAuditRepo{}))

	err := svc.Create(context.Background(), &models.User{Name: "A", Email: "a@b.c"}, "short", nil)
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.Create(context.Background(), &models.User{Name: "A", Email: "a@b.c", Role: "owner"}, "long-enough", nil)
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.Create(context.Background(), &models.User{Email: "a@b.c"}, "long-enough", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	users := &mockUserRepo{mockCreate: func(ctx context.Context, u *models.User) error {
		return repository.ErrDuplicateEmail
	}}
	svc := NewUserService(users, nil, nil, NewAuditService(&fakeAuditRepo{}))

	err := svc.Create(context.Background(), &models.User{Name: "A", Email: "a@b.c"}, "long-enough", nil)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserService_ToggleActive(t *testing.T) {
	target := &models.User{ID: 5, Active: true}
	users := &mockUserRepo{mockFindByID: func(ctx context.Context, id uint) (*models.User, error) { return target, nil }}
	svc := NewUserService(users, nil, nil, NewAuditService(&fakeAuditRepo{}))

	user, err := svc.ToggleActive(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.False(t, user.Active)

	_, err = svc.ToggleActive(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_ToggleActiveNotFound(t *testing.T) {
	users := &mockUserRepo{mockFindByID: func(ctx context.Context, id uint) (*models.User, error) {
		return nil, gorm.ErrRecordNotFound
	}}
	svc := NewUserService(users, nil, nil, NewAuditService(&fakeAuditRepo{}))

	_, err := svc.ToggleActive(context.Background(), 5, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	existing := &models.User{ID: 3, Email: "admin@rkco.app", Role: models.RoleAdmin}
	users := &mockUserRepo{mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
		return existing, nil
	}}
	svc := NewUserService(users, nil, nil, NewAuditService(&fakeAuditRepo{}))

	admin, created, err := svc.EnsureAdmin(context.Background(), "", "admin@rkco.app", "long-enough")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, uint(3), admin.ID)

	users.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return nil, gorm.ErrRecordNotFound
	}
	admin, created, err = svc.EnsureAdmin(context.Background(), "", "admin@rkco.app", "long-enough")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Administrator", admin.Name)
}
