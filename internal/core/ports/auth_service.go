package ports

import (
	"context"
	"time"

	"github.com/autotradevip/atv-backend/internal/core/domain"
)

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	FullName  string
	Phone     string
	IsAdmin   bool
	VIPStatus bool
}

// RequestMeta describes the caller of an operation for the audit trail.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	User     *domain.User
	Accounts []domain.TradingAccount
}

// TokenClaims is the verified content of an access token.
type TokenClaims struct {
	UserID    string
	Email     string
	Role      string
	VIP       bool
	TokenID   string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*RegisterResult, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string, meta RequestMeta) (string, *domain.User, error)
	Logout(ctx context.Context, claims TokenClaims, meta RequestMeta) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// LoginLimiter throttles login attempts per email. Attempt reserves one
// attempt in the current window and reports whether it is within the limit;
// Reset clears the window after a successful login.
type LoginLimiter interface {
	Attempt(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
}

// TokenRevoker keeps a deny-list of logged-out token IDs.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
