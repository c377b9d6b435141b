package services

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(n int) time.Time {
	return time.Date(2026, 1, n, 9, 0, 0, 0, time.UTC)
}

// fakeOrderRepo is an in-memory order store that keeps insertion order
type fakeOrderRepo struct {
	mu          sync.Mutex
	orders      []models.Order
	nextID      uint
	failUpdate  map[uint]error
	updateCalls int
	findCalls   int
}

func newFakeOrderRepo(orders ...models.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{failUpdate: map[uint]error{}}
	for _, o := range orders {
		_ = r.Create(context.Background(), &o)
	}
	return r
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == 0 {
		r.nextID++
		order.ID = r.nextID
	} else if order.ID > r.nextID {
		r.nextID = order.ID
	}
	if order.Kind == "" {
		order.Kind = models.OrderKindSale
	}
	r.orders = append(r.orders, *order)
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, kind string, id uint) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id && o.Kind == kind {
			found := o
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) List(ctx context.Context, kind string, query *repository.ListQuery) ([]models.Order, int64, error) {
	out := r.filter(func(o models.Order) bool { return o.Kind == kind })
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) FindByParty(ctx context.Context, kind, partyName string) ([]models.Order, error) {
	out := r.filter(func(o models.Order) bool { return o.Kind == kind && o.PartyName == partyName })
	slices.SortStableFunc(out, func(a, b models.Order) int { return b.Date.Compare(a.Date) })
	return out, nil
}

func (r *fakeOrderRepo) FindOutstanding(ctx context.Context, kind, partyName string) ([]models.Order, error) {
	r.mu.Lock()
	r.findCalls++
	r.mu.Unlock()

	out := r.filter(func(o models.Order) bool {
		return o.Kind == kind && o.PartyName == partyName && o.IsOutstanding()
	})
	slices.SortStableFunc(out, func(a, b models.Order) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *fakeOrderRepo) FindAll(ctx context.Context, kind string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return kind == "" || o.Kind == kind }), nil
}

func (r *fakeOrderRepo) UpdatePayment(ctx context.Context, id uint, paid decimal.Decimal, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if err := r.failUpdate[id]; err != nil {
		return err
	}
	for i := range r.orders {
		if r.orders[i].ID == id {
			r.orders[i].PaidAmount = paid
			r.orders[i].PaymentStatus = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) UpdateAttachment(ctx context.Context, id uint, path string) error {
	return nil
}

func (r *fakeOrderRepo) filter(keep func(models.Order) bool) []models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func (r *fakeOrderRepo) get(id uint) models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o
		}
	}
	return models.Order{}
}

// fakeReceiptRepo stores receipts in memory
type fakeReceiptRepo struct {
	mu         sync.Mutex
	receipts   []models.PaymentReceipt
	failCreate error
}

func (r *fakeReceiptRepo) Create(ctx context.Context, receipt *models.PaymentReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	receipt.ID = uint(len(r.receipts) + 1)
	r.receipts = append(r.receipts, *receipt)
	return nil
}

func (r *fakeReceiptRepo) FindByID(ctx context.Context, id uint) (*models.PaymentReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rc := range r.receipts {
		if rc.ID == id {
			found := rc
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReceiptRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.PaymentReceipt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.receipts)
	return out, int64(len(out)), nil
}

func (r *fakeReceiptRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.receipts)
}

// fakeProductRepo is an in-memory catalog
type fakeProductRepo struct {
	products  []models.Product
	createErr error
}

func (r *fakeProductRepo) List(ctx context.Context) ([]models.Product, error) {
	out := slices.Clone(r.products)
	slices.SortFunc(out, func(a, b models.Product) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *fakeProductRepo) FindByName(ctx context.Context, name string) (*models.Product, error) {
	for _, p := range r.products {
		if p.Name == name {
			found := p
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) Create(ctx context.Context, product *models.Product) error {
	if r.createErr != nil {
		return r.createErr
	}
	product.ID = uint(len(r.products) + 1)
	r.products = append(r.products, *product)
	return nil
}

// fakePartyLockRepo stands in for the advisory lock
type fakePartyLockRepo struct {
	mu   sync.Mutex
	keys []string
	err  error
	held bool
}

func (r *fakePartyLockRepo) WithPartyLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.held = true
	defer func() { r.held = false }()
	return fn(ctx)
}

// fakePartyRepo is a name-keyed party directory
type fakePartyRepo struct {
	parties []models.Party
}

func (r *fakePartyRepo) FindOrCreate(ctx context.Context, party *models.Party) (*models.Party, error) {
	party.Name = strings.TrimSpace(party.Name)
	if existing, err := r.FindByName(ctx, party.Name); err == nil {
		return existing, nil
	}
	party.ID = uint(len(r.parties) + 1)
	r.parties = append(r.parties, *party)
	return party, nil
}

func (r *fakePartyRepo) FindByName(ctx context.Context, name string) (*models.Party, error) {
	for _, p := range r.parties {
		if p.Name == name {
			found := p
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePartyRepo) List(ctx context.Context) ([]models.Party, error) {
	return r.parties, nil
}

func (r *fakePartyRepo) Search(ctx context.Context, term string, limit int) ([]models.Party, error) {
	var out []models.Party
	for _, p := range r.parties {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

// mockUserRepo overrides only what a test needs
type mockUserRepo struct {
	repository.UserRepository
	mockFindByEmail func(ctx context.Context, email string) (*models.User, error)
	mockFindByID    func(ctx context.Context, id uint) (*models.User, error)
	mockFindAdmins  func(ctx context.Context) ([]models.User, error)
	mockUpdate      func(ctx context.Context, user *models.User) error
	mockCreate      func(ctx context.Context, user *models.User) error
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.mockFindByEmail(ctx, email)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockUserRepo) FindAdmins(ctx context.Context) ([]models.User, error) {
	return m.mockFindAdmins(ctx)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, user)
	}
	user.ID = 1
	return nil
}

type mockRTRepo struct {
	repository.RefreshTokenRepository
	mockFindByToken func(ctx context.Context, token string) (*models.RefreshToken, error)
	created         []models.RefreshToken
	deleted         []string
	purgedBefore    time.Time
}

func (m *mockRTRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return m.mockFindByToken(ctx, token)
}

func (m *mockRTRepo) Create(ctx context.Context, rt *models.RefreshToken) error {
	m.created = append(m.created, *rt)
	return nil
}

func (m *mockRTRepo) Delete(ctx context.Context, token string) error {
	m.deleted = append(m.deleted, token)
	return nil
}

func (m *mockRTRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.purgedBefore = before
	return 2, nil
}

// fakeAuditRepo records entries
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries), int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) all() []models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// fakeNotificationRepo records created notifications
type fakeNotificationRepo struct {
	repository.NotificationRepository
	mu      sync.Mutex
	created []models.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *n)
	return nil
}

func (r *fakeNotificationRepo) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.created)
}
