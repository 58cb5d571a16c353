package ports

import (
	"context"

	"github.com/autotradevip/atv-backend/internal/core/domain"
)

type UserService interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	UpdateVIPStatus(ctx context.Context, id string, vip bool, meta RequestMeta) error
	UpdateProfile(ctx context.Context, id string, profile domain.Profile, meta RequestMeta) (*domain.User, error)
	ChangePassword(ctx context.Context, id, current, next string, meta RequestMeta) error
	ListTradingAccounts(ctx context.Context, id string) ([]domain.TradingAccount, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	Stats(ctx context.Context) (domain.UserStats, error)
}
