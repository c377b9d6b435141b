package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a staff member with access to the ledger
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"not null" json:"name"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword string     `gorm:"column:encrypted_password;not null" json:"-"`
	Role              string     `gorm:"size:20;default:viewer" json:"role"`
	Active            bool       `gorm:"default:true" json:"active"`
	LastLoginAt       *time.Time `json:"last_login_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleAccountant = "accountant"
	RoleViewer     = "viewer"
)

// Permission constants
const (
	PermProductsCreate  = "products:create"
	PermProductsRead    = "products:read"
	PermLedgerRead      = "ledger:read"
	PermSalesCreate     = "sales:create"
	PermSalesRead       = "sales:read"
	PermPurchasesCreate = "purchases:create"
	PermPurchasesRead   = "purchases:read"
	PermPaymentsUpdate  = "payments:update"
	PermUsersRead       = "users:read"
)

var rolePermissions = map[string][]string{
	RoleAdmin:      {"*"},
	RoleManager:    {PermProductsCreate, PermProductsRead, PermLedgerRead, PermSalesCreate, PermPurchasesCreate, PermUsersRead},
	RoleAccountant: {PermLedgerRead, PermPaymentsUpdate, PermPurchasesRead, PermSalesRead},
	RoleViewer:     {PermLedgerRead, PermProductsRead},
}

// RoleCan reports whether a role holds a permission
func RoleCan(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == "*" || p == permission {
			return true
		}
	}
	return false
}

// IsValidRole returns true for known roles
func IsValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleViewer
	}
	return nil
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Can reports whether the user's role holds a permission
func (u *User) Can(permission string) bool {
	return RoleCan(u.Role, permission)
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
