package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
	"github.com/autotradevip/atv-backend/internal/pkg/metrics"
)

// timingPassword is hashed once and compared against when the email is
// unknown, so both failure paths cost one bcrypt comparison.
const timingPassword = "atv-timing-equalizer"

// AuthConfig carries the tunables of AuthService.
type AuthConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	Brokers        []string
	InitialBalance decimal.Decimal
}

// AuthService implements registration, credential verification and sessions.
type AuthService struct {
	repo    ports.UserRepository
	hasher  ports.PasswordHasher
	limiter ports.LoginLimiter
	revoker ports.TokenRevoker
	audit   ports.AuditRecorder
	cfg     AuthConfig
	log     zerolog.Logger
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires the service. limiter, revoker and audit may be nil.
func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	limiter ports.LoginLimiter,
	revoker ports.TokenRevoker,
	audit ports.AuditRecorder,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if len(cfg.Brokers) == 0 {
		cfg.Brokers = domain.DefaultBrokers
	}
	if cfg.InitialBalance.IsZero() {
		cfg.InitialBalance = domain.DefaultInitialBalance
	}
	if limiter == nil {
		limiter = noopLimiter{}
	}
	if revoker == nil {
		revoker = noopRevoker{}
	}
	if audit == nil {
		audit = noopRecorder{}
	}
	return &AuthService{
		repo:    repo,
		hasher:  hasher,
		limiter: limiter,
		revoker: revoker,
		audit:   audit,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// Register hashes the password, then stores the user together with one
// placeholder trading account per configured broker.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput, meta ports.RequestMeta) (*ports.RegisterResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		FullName:     in.FullName,
		Phone:        in.Phone,
		IsAdmin:      in.IsAdmin,
		VIPStatus:    in.VIPStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	accounts := provisionAccounts(user.ID, s.cfg.Brokers, s.cfg.InitialBalance, now)

	created, err := s.repo.CreateWithAccounts(ctx, user, accounts)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.log.Info().Str("email", email).Msg("registration rejected: email taken")
			return nil, domain.ErrUserExists
		}
		s.log.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	metrics.UsersRegisteredTotal.Inc()
	s.audit.Record(ports.AuditEventInput{
		UserID:   created.ID,
		Action:   domain.ActionUserRegistered,
		Meta:     meta,
		Metadata: map[string]string{"accounts": fmt.Sprint(len(accounts))},
		At:       now,
	})
	s.log.Info().Str("user_id", created.ID).Int("accounts", len(accounts)).Msg("user registered")

	return &ports.RegisterResult{User: created, Accounts: accounts}, nil
}

// Authenticate verifies the credentials. Unknown email and wrong password are
// indistinguishable: both return domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		_ = s.hasher.Compare(s.timingHash(), password)
		return nil, domain.ErrInvalidCredentials
	}

	if s.hasher.Compare(user.PasswordHash, password) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Login reserves an attempt against the per-email throttle before the
// password is checked, then authenticates and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string, meta ports.RequestMeta) (string, *domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	allowed, err := s.limiter.Attempt(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable, allowing attempt")
	} else if !allowed {
		metrics.AuthAttemptsTotal.WithLabelValues("throttled").Inc()
		return "", nil, domain.ErrTooManyAttempts
	}

	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
			s.audit.Record(ports.AuditEventInput{
				Action:   domain.ActionUserLoginFailed,
				Meta:     meta,
				Metadata: map[string]string{"email": email},
				At:       s.now().UTC(),
			})
		}
		return "", nil, err
	}

	if rerr := s.limiter.Reset(ctx, email); rerr != nil {
		s.log.Warn().Err(rerr).Msg("failed to reset login throttle")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	s.audit.Record(ports.AuditEventInput{
		UserID: user.ID,
		Action: domain.ActionUserLogin,
		Meta:   meta,
		At:     s.now().UTC(),
	})
	return token, user, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims ports.TokenClaims, meta ports.RequestMeta) error {
	if claims.TokenID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.audit.Record(ports.AuditEventInput{
		UserID: claims.UserID,
		Action: domain.ActionUserLogout,
		Meta:   meta,
		At:     s.now().UTC(),
	})
	return nil
}

func (s *AuthService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.revoker.IsRevoked(ctx, tokenID)
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role(),
		"vip":   user.VIPStatus,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.TokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) timingHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(timingPassword)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to prepare timing hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func provisionAccounts(userID string, brokers []string, balance decimal.Decimal, at time.Time) []domain.TradingAccount {
	accounts := make([]domain.TradingAccount, 0, len(brokers))
	for _, b := range brokers {
		accounts = append(accounts, domain.TradingAccount{
			ID:         uuid.NewString(),
			UserID:     userID,
			BrokerName: b,
			Balance:    balance,
			IsActive:   true,
			CreatedAt:  at,
		})
	}
	return accounts
}
