package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

func newUserFixture(t *testing.T) (*authFixture, ports.UserService, string) {
	t.Helper()
	f := newAuthFixture(AuthConfig{})
	res := f.register(t, "a@b.com", "secret1")
	svc := NewUserService(f.repo, f.hasher, f.audit, zerolog.Nop())
	return f, svc, res.User.ID
}

func TestUserService_ExistsAfterRegistration(t *testing.T) {
	_, svc, _ := newUserFixture(t)

	ok, err := svc.Exists(context.Background(), "a@b.com")
	if err != nil || !ok {
		t.Fatalf("expected user to exist, got %v %v", ok, err)
	}
	ok, err = svc.Exists(context.Background(), " A@B.COM ")
	if err != nil || !ok {
		t.Fatalf("expected case-insensitive match, got %v %v", ok, err)
	}
	ok, err = svc.Exists(context.Background(), "ghost@b.com")
	if err != nil || ok {
		t.Fatalf("expected unknown email to not exist, got %v %v", ok, err)
	}
	if ok, _ := svc.Exists(context.Background(), ""); ok {
		t.Fatalf("empty email must not exist")
	}
}

func TestUserService_GetByID(t *testing.T) {
	_, svc, id := newUserFixture(t)

	u, err := svc.GetByID(context.Background(), id)
	if err != nil || u.Email != "a@b.com" {
		t.Fatalf("unexpected result: %+v %v", u, err)
	}
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), ""); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for empty id, got %v", err)
	}
}

func TestUserService_UpdateVIPStatus_Idempotent(t *testing.T) {
	f, svc, id := newUserFixture(t)

	for i := 0; i < 2; i++ {
		if err := svc.UpdateVIPStatus(context.Background(), id, true, ports.RequestMeta{}); err != nil {
			t.Fatalf("update %d returned error: %v", i, err)
		}
		u, _ := f.repo.FindByID(context.Background(), id)
		if !u.VIPStatus {
			t.Fatalf("update %d: expected vip=true", i)
		}
	}

	last := f.audit.last()
	if last.Action != domain.ActionVIPUpdated || last.Metadata["vip_status"] != "true" {
		t.Fatalf("unexpected audit event: %+v", last)
	}
}

func TestUserService_UpdateVIPStatus_UnknownUser(t *testing.T) {
	_, svc, _ := newUserFixture(t)

	err := svc.UpdateVIPStatus(context.Background(), "missing", true, ports.RequestMeta{})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	f, svc, id := newUserFixture(t)

	u, err := svc.UpdateProfile(context.Background(), id, domain.Profile{
		FirstName: "Ana",
		LastName:  "Souza",
		FullName:  "Ana Souza",
		Phone:     "123",
	}, ports.RequestMeta{})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if u.FullName != "Ana Souza" || u.Phone != "123" || u.FirstName != "Ana" {
		t.Fatalf("profile not applied: %+v", u)
	}
	if f.audit.last().Action != domain.ActionProfileUpdated {
		t.Fatalf("expected profile audit")
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	f, svc, id := newUserFixture(t)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, id, "wrong", "newpass1", ports.RequestMeta{}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, id, "secret1", "", ports.RequestMeta{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.ChangePassword(ctx, id, "secret1", "newpass1", ports.RequestMeta{}); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if _, err := f.svc.Authenticate(ctx, "a@b.com", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := f.svc.Authenticate(ctx, "a@b.com", "newpass1"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
	if f.audit.last().Action != domain.ActionPasswordChanged {
		t.Fatalf("expected password audit")
	}
}

func TestUserService_ListTradingAccounts(t *testing.T) {
	_, svc, id := newUserFixture(t)

	accounts, err := svc.ListTradingAccounts(context.Background(), id)
	if err != nil {
		t.Fatalf("ListTradingAccounts returned error: %v", err)
	}
	if len(accounts) != len(domain.DefaultBrokers) {
		t.Fatalf("expected %d accounts, got %d", len(domain.DefaultBrokers), len(accounts))
	}
	if _, err := svc.ListTradingAccounts(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_ListAndStats(t *testing.T) {
	f, svc, id := newUserFixture(t)
	f.register(t, "c@d.com", "secret1")
	if err := svc.UpdateVIPStatus(context.Background(), id, true, ports.RequestMeta{}); err != nil {
		t.Fatalf("UpdateVIPStatus: %v", err)
	}

	users, err := svc.List(context.Background(), 0, 0)
	if err != nil || len(users) != 2 {
		t.Fatalf("expected 2 users, got %d %v", len(users), err)
	}
	users, _ = svc.List(context.Background(), 1, 1)
	if len(users) != 1 || users[0].Email != "c@d.com" {
		t.Fatalf("unexpected page: %+v", users)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	want := domain.UserStats{TotalUsers: 2, VIPUsers: 1, AdminUsers: 0, TradingAccounts: int64(2 * len(domain.DefaultBrokers))}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-1: defaultListLimit, 0: defaultListLimit, 10: 10, maxListLimit: maxListLimit, 1000: maxListLimit}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Fatalf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
