package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User models a registered platform account holder.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	FullName     string    `json:"full_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	VIPStatus    bool      `json:"vip_status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role derives the authorization role carried in access tokens.
func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleMember
}

// Profile holds the user-editable fields.
type Profile struct {
	FirstName string
	LastName  string
	FullName  string
	Phone     string
}

// NormalizeEmail is applied before every store lookup or insert so that the
// unique constraint is case-insensitive in practice.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStats is an aggregate snapshot of the user base.
type UserStats struct {
	TotalUsers      int64 `json:"total_users"`
	VIPUsers        int64 `json:"vip_users"`
	AdminUsers      int64 `json:"admin_users"`
	TradingAccounts int64 `json:"trading_accounts"`
}
