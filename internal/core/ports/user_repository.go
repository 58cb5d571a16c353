package ports

import (
	"context"

	"github.com/autotradevip/atv-backend/internal/core/domain"
)

// UserRepository is the credential store: user records plus their
// per-broker trading accounts.
type UserRepository interface {
	// CreateWithAccounts persists the user together with its trading accounts.
	// A duplicate email yields domain.ErrUserExists.
	CreateWithAccounts(ctx context.Context, user *domain.User, accounts []domain.TradingAccount) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// UpdateVIPStatus sets the flag; it succeeds when the row matches even if
	// the stored value is already equal.
	UpdateVIPStatus(ctx context.Context, id string, vip bool) error
	UpdateProfile(ctx context.Context, id string, profile domain.Profile) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetAdmin(ctx context.Context, id string, admin bool) error
	ListTradingAccounts(ctx context.Context, userID string) ([]domain.TradingAccount, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	Stats(ctx context.Context) (domain.UserStats, error)
}

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}
