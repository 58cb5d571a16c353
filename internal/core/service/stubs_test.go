package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

// ---------------------------------------------------------------------------
// User repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.User
	accounts map[string][]domain.TradingAccount
	findErr  error
	createFn func(user *domain.User) error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byID:     make(map[string]*domain.User),
		accounts: make(map[string][]domain.TradingAccount),
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) CreateWithAccounts(_ context.Context, user *domain.User, accounts []domain.TradingAccount) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createFn != nil {
		if err := r.createFn(user); err != nil {
			return nil, err
		}
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.byID[user.ID] = cloneUser(user)
	r.accounts[user.ID] = append([]domain.TradingAccount(nil), accounts...)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *stubUserRepo) update(id string, fn func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *stubUserRepo) UpdateVIPStatus(_ context.Context, id string, vip bool) error {
	return r.update(id, func(u *domain.User) { u.VIPStatus = vip })
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, p domain.Profile) error {
	return r.update(id, func(u *domain.User) {
		u.FirstName, u.LastName, u.FullName, u.Phone = p.FirstName, p.LastName, p.FullName, p.Phone
	})
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (r *stubUserRepo) SetAdmin(_ context.Context, id string, admin bool) error {
	return r.update(id, func(u *domain.User) { u.IsAdmin = admin })
}

func (r *stubUserRepo) ListTradingAccounts(_ context.Context, userID string) ([]domain.TradingAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TradingAccount(nil), r.accounts[userID]...), nil
}

func (r *stubUserRepo) List(_ context.Context, limit, offset int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	if offset >= len(all) {
		return []*domain.User{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *stubUserRepo) Stats(_ context.Context) (domain.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s domain.UserStats
	for id, u := range r.byID {
		s.TotalUsers++
		if u.VIPStatus {
			s.VIPUsers++
		}
		if u.IsAdmin {
			s.AdminUsers++
		}
		s.TradingAccounts += int64(len(r.accounts[id]))
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Hasher: real bcrypt at minimum cost, counting comparisons.
// ---------------------------------------------------------------------------

type stubHasher struct {
	mu       sync.Mutex
	compares int
}

func (h *stubHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(b), err
}

func (h *stubHasher) Compare(hash, password string) error {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (h *stubHasher) Compares() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.compares
}

// ---------------------------------------------------------------------------
// Throttle, revocation and audit
// ---------------------------------------------------------------------------

type stubLimiter struct {
	maxAttempts int
	attempts    map[string]int
	attemptErr  error
}

func newStubLimiter(maxAttempts int) *stubLimiter {
	return &stubLimiter{maxAttempts: maxAttempts, attempts: make(map[string]int)}
}

func (l *stubLimiter) Attempt(_ context.Context, email string) (bool, error) {
	if l.attemptErr != nil {
		return false, l.attemptErr
	}
	l.attempts[email]++
	return l.attempts[email] <= l.maxAttempts, nil
}

func (l *stubLimiter) Reset(_ context.Context, email string) error {
	delete(l.attempts, email)
	return nil
}

type stubRevoker struct {
	until map[string]time.Time
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{until: make(map[string]time.Time)}
}

func (r *stubRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	r.until[tokenID] = until
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := r.until[tokenID]
	return ok, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []ports.AuditEventInput
}

func (a *recordingAudit) Record(e ports.AuditEventInput) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

func (a *recordingAudit) last() ports.AuditEventInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return ports.AuditEventInput{}
	}
	return a.events[len(a.events)-1]
}
