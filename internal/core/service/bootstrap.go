package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

// Bootstrapper provisions the initial administrator at startup.
type Bootstrapper struct {
	auth *AuthService
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewBootstrapper(auth *AuthService, repo ports.UserRepository, log zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{auth: auth, repo: repo, log: log}
}

// EnsureAdmin creates the admin account when the email is free, or promotes
// the existing user otherwise. Running it repeatedly is harmless.
func (b *Bootstrapper) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}

	existing, err := b.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin {
			b.log.Debug().Str("email", email).Msg("admin already present")
			return existing, nil
		}
		if err := b.repo.SetAdmin(ctx, existing.ID, true); err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		existing.IsAdmin = true
		b.log.Info().Str("user_id", existing.ID).Msg("existing user promoted to admin")
		return existing, nil
	case !isNotFound(err):
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	res, err := b.auth.Register(ctx, ports.RegisterInput{
		Email:     email,
		Password:  password,
		FullName:  "Admin User",
		IsAdmin:   true,
		VIPStatus: true,
	}, ports.RequestMeta{})
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	b.auth.audit.Record(ports.AuditEventInput{
		UserID: res.User.ID,
		Action: domain.ActionAdminBootstrapped,
		At:     res.User.CreatedAt,
	})
	b.log.Info().Str("user_id", res.User.ID).Msg("admin user created")
	return res.User, nil
}
