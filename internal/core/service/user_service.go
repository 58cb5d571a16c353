package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
	"github.com/autotradevip/atv-backend/internal/pkg/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type userService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	audit  ports.AuditRecorder
	log    zerolog.Logger
	now    func() time.Time
}

// NewUserService returns a UserService implementation. audit may be nil.
func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, audit ports.AuditRecorder, log zerolog.Logger) ports.UserService {
	if audit == nil {
		audit = noopRecorder{}
	}
	return &userService{
		repo:   repo,
		hasher: hasher,
		audit:  audit,
		log:    log,
		now:    time.Now,
	}
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *userService) Exists(ctx context.Context, email string) (bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return false, nil
	}
	return s.repo.ExistsByEmail(ctx, email)
}

// UpdateVIPStatus is idempotent: setting the current value again succeeds.
func (s *userService) UpdateVIPStatus(ctx context.Context, id string, vip bool, meta ports.RequestMeta) error {
	if err := s.repo.UpdateVIPStatus(ctx, id, vip); err != nil {
		return fmt.Errorf("update vip status: %w", err)
	}

	metrics.VIPUpdatesTotal.WithLabelValues(strconv.FormatBool(vip)).Inc()
	s.audit.Record(ports.AuditEventInput{
		UserID:   id,
		Action:   domain.ActionVIPUpdated,
		Meta:     meta,
		Metadata: map[string]string{"vip_status": strconv.FormatBool(vip)},
		At:       s.now().UTC(),
	})
	s.log.Info().Str("user_id", id).Bool("vip_status", vip).Msg("vip status updated")
	return nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, profile domain.Profile, meta ports.RequestMeta) (*domain.User, error) {
	if err := s.repo.UpdateProfile(ctx, id, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.audit.Record(ports.AuditEventInput{
		UserID: id,
		Action: domain.ActionProfileUpdated,
		Meta:   meta,
		At:     s.now().UTC(),
	})
	return s.repo.FindByID(ctx, id)
}

// ChangePassword requires the current password before storing a new hash.
func (s *userService) ChangePassword(ctx context.Context, id, current, next string, meta ports.RequestMeta) error {
	if next == "" {
		return domain.ErrInvalidInput
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if s.hasher.Compare(user.PasswordHash, current) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.audit.Record(ports.AuditEventInput{
		UserID: id,
		Action: domain.ActionPasswordChanged,
		Meta:   meta,
		At:     s.now().UTC(),
	})
	return nil
}

func (s *userService) ListTradingAccounts(ctx context.Context, id string) ([]domain.TradingAccount, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListTradingAccounts(ctx, id)
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *userService) Stats(ctx context.Context) (domain.UserStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	metrics.ObserveUserStats(stats)
	return stats, nil
}

// isNotFound is shared by the services that treat a missing user specially.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
