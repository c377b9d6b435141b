package services

import (
	"context"
	"sync"

	"github.com/rkco/fuel-ledger/internal/repository"
)

// PartyLocker serializes allocations per party. Entries are reference
// counted and dropped once no caller holds or waits on them. With a
// database lock attached, callers in other processes are serialized too.
type PartyLocker struct {
	mu    sync.Mutex
	locks map[string]*partyLock
	db    repository.PartyLockRepository
}

type partyLock struct {
	mu   sync.Mutex
	refs int
}

func NewPartyLocker() *PartyLocker {
	return &PartyLocker{locks: make(map[string]*partyLock)}
}

// NewDatabasePartyLocker also takes a Postgres advisory lock per party
func NewDatabasePartyLocker(db repository.PartyLockRepository) *PartyLocker {
	l := NewPartyLocker()
	l.db = db
	return l
}

func partyKey(partyType, partyName string) string {
	return partyType + ":" + partyName
}

// Run calls fn while holding the party's lock
func (l *PartyLocker) Run(ctx context.Context, partyType, partyName string, fn func(ctx context.Context) error) error {
	unlock := l.Lock(partyType, partyName)
	defer unlock()

	if l.db == nil {
		return fn(ctx)
	}
	return l.db.WithPartyLock(ctx, partyKey(partyType, partyName), fn)
}

// Lock blocks until the party is free in this process and returns the
// matching unlock func
func (l *PartyLocker) Lock(partyType, partyName string) func() {
	key := partyKey(partyType, partyName)

	l.mu.Lock()
	pl, ok := l.locks[key]
	if !ok {
		pl = &partyLock{}
		l.locks[key] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()

	return func() {
		pl.mu.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// held returns the number of parties with an active or waiting caller
func (l *PartyLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
