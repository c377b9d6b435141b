package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// PartyLockRepository serializes payments for one party across every
// process sharing the database (API replicas and ledgerctl).
type PartyLockRepository interface {
	WithPartyLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type partyLockRepository struct {
	db *gorm.DB
}

// NewPartyLockRepository creates a lock backed by Postgres advisory locks
func NewPartyLockRepository(db *gorm.DB) PartyLockRepository {
	return &partyLockRepository{db: db}
}

// WithPartyLock holds a transaction-scoped advisory lock on key while fn
// runs. fn's writes use their own connections; the lock is released when
// the holding transaction ends.
func (r *partyLockRepository) WithPartyLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
			return fmt.Errorf("failed to acquire party lock: %w", err)
		}
		return fn(ctx)
	})
}
