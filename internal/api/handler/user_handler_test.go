package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

type stubUserService struct {
	users      map[string]*domain.User
	accounts   []domain.TradingAccount
	vipCalls   []bool
	profile    domain.Profile
	passwordFn func(current, next string) error
	listArgs   [2]int
	stats      domain.UserStats
}

func newStubUserService() *stubUserService {
	return &stubUserService{users: map[string]*domain.User{
		"u1": {ID: "u1", Email: "alice@example.com", FullName: "Alice", CreatedAt: time.Now()},
	}}
}

func (s *stubUserService) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserService) Exists(_ context.Context, email string) (bool, error) {
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubUserService) UpdateVIPStatus(_ context.Context, id string, vip bool, _ ports.RequestMeta) error {
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	s.vipCalls = append(s.vipCalls, vip)
	return nil
}

func (s *stubUserService) UpdateProfile(_ context.Context, id string, p domain.Profile, _ ports.RequestMeta) (*domain.User, error) {
	s.profile = p
	u := *s.users[id]
	u.FullName, u.Phone = p.FullName, p.Phone
	return &u, nil
}

func (s *stubUserService) ChangePassword(_ context.Context, _ string, current, next string, _ ports.RequestMeta) error {
	return s.passwordFn(current, next)
}

func (s *stubUserService) ListTradingAccounts(context.Context, string) ([]domain.TradingAccount, error) {
	return s.accounts, nil
}

func (s *stubUserService) List(_ context.Context, limit, offset int) ([]*domain.User, error) {
	s.listArgs = [2]int{limit, offset}
	return []*domain.User{s.users["u1"]}, nil
}

func (s *stubUserService) Stats(context.Context) (domain.UserStats, error) {
	return s.stats, nil
}

var memberClaims = ports.TokenClaims{UserID: "u1", Email: "alice@example.com", Role: domain.RoleMember, TokenID: "tok-1"}

func TestUserHandler_Me(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/v1/me", "")
	withClaims(c, memberClaims)

	if err := NewUserHandler(newStubUserService()).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["id"] != "u1" || resp["email"] != "alice@example.com" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_Me_UnknownUser(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/v1/me", "")
	withClaims(c, ports.TokenClaims{UserID: "gone", Role: domain.RoleMember})

	if err := NewUserHandler(newStubUserService()).Me(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_UpdateMe(t *testing.T) {
	svc := newStubUserService()
	c, rec := newTestContext(http.MethodPut, "/v1/me", `{"full_name":"  Alice Doe ","phone":"123"}`)
	withClaims(c, memberClaims)

	if err := NewUserHandler(svc).UpdateMe(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.profile.FullName != "Alice Doe" || svc.profile.Phone != "123" {
		t.Fatalf("profile not trimmed/forwarded: %+v", svc.profile)
	}
}

func TestUserHandler_UpdateMe_RequiresFullName(t *testing.T) {
	c, _ := newTestContext(http.MethodPut, "/v1/me", `{"phone":"123"}`)
	withClaims(c, memberClaims)

	err := NewUserHandler(newStubUserService()).UpdateMe(c)
	if code := httpStatus(t, err); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestUserHandler_ChangePassword(t *testing.T) {
	svc := newStubUserService()
	svc.passwordFn = func(current, next string) error {
		if current != "secret1" || next != "newpass1" {
			t.Fatalf("unexpected args %s %s", current, next)
		}
		return nil
	}
	c, rec := newTestContext(http.MethodPut, "/v1/me/password",
		`{"current_password":"secret1","new_password":"newpass1","confirm_password":"newpass1"}`)
	withClaims(c, memberClaims)

	if err := NewUserHandler(svc).ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestUserHandler_ChangePassword_Validation(t *testing.T) {
	svc := newStubUserService()
	svc.passwordFn = func(string, string) error {
		t.Fatalf("should not be called")
		return nil
	}

	for _, body := range []string{
		`{"current_password":"secret1","new_password":"newpass1","confirm_password":"other"}`,
		`{"current_password":"secret1","new_password":"secret1","confirm_password":"secret1"}`,
		`{"current_password":"secret1","new_password":"123","confirm_password":"123"}`,
		// 40 runes, 80 bytes
		`{"current_password":"secret1","new_password":"` + strings.Repeat("é", 40) + `","confirm_password":"` + strings.Repeat("é", 40) + `"}`,
	} {
		c, _ := newTestContext(http.MethodPut, "/v1/me/password", body)
		withClaims(c, memberClaims)
		if code := httpStatus(t, NewUserHandler(svc).ChangePassword(c)); code != http.StatusUnprocessableEntity {
			t.Fatalf("body %s: expected 422, got %d", body, code)
		}
	}
}

func TestUserHandler_Accounts(t *testing.T) {
	svc := newStubUserService()
	svc.accounts = []domain.TradingAccount{
		{ID: "a1", BrokerName: "Binomo", Balance: decimal.RequireFromString("1000"), IsActive: true},
		{ID: "a2", BrokerName: "Quotex", Balance: decimal.RequireFromString("12.5"), IsActive: true},
	}
	c, rec := newTestContext(http.MethodGet, "/v1/me/accounts", "")
	withClaims(c, memberClaims)

	if err := NewUserHandler(svc).Accounts(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0]["account_balance"] != "1000.00" || resp[1]["account_balance"] != "12.50" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
