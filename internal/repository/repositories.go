package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	RefreshToken RefreshTokenRepository
	Order        OrderRepository
	Receipt      ReceiptRepository
	Customer     PartyRepository
	Supplier     PartyRepository
	Product      ProductRepository
	PartyLock    PartyLockRepository
	Audit        AuditRepository
	Notification NotificationRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Order:        NewOrderRepository(db),
		Receipt:      NewReceiptRepository(db),
		Customer:     NewCustomerRepository(db),
		Supplier:     NewSupplierRepository(db),
		Product:      NewProductRepository(db),
		PartyLock:    NewPartyLockRepository(db),
		Audit:        NewAuditRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// paginate applies offset/limit when PerPage is set
func (q *ListQuery) paginate(db *gorm.DB) *gorm.DB {
	if q.PerPage <= 0 {
		return db
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	return db.Offset((page - 1) * q.PerPage).Limit(q.PerPage)
}

// orderBy applies a whitelisted sort column or the fallback
func (q *ListQuery) orderBy(db *gorm.DB, allowed map[string]bool, fallback string) *gorm.DB {
	if q.SortBy != "" && allowed[q.SortBy] {
		order := q.SortBy
		if q.SortDir == "desc" {
			order += " DESC"
		}
		return db.Order(order)
	}
	return db.Order(fallback)
}
