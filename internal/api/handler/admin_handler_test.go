package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

type stubAuditService struct {
	limit  int
	events []domain.AuditEvent
}

func (s *stubAuditService) Process(context.Context, ports.AuditEventInput) error { return nil }

func (s *stubAuditService) ListRecent(_ context.Context, limit int) ([]domain.AuditEvent, error) {
	s.limit = limit
	return s.events, nil
}

func newAdminHandler() (*AdminHandler, *stubUserService, *stubAuditService) {
	users := newStubUserService()
	audit := &stubAuditService{}
	return NewAdminHandler(users, audit), users, audit
}

func TestAdminHandler_ListUsers_Pagination(t *testing.T) {
	h, users, _ := newAdminHandler()

	c, rec := newTestContext(http.MethodGet, "/v1/admin/users?limit=500&offset=10", "")
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if users.listArgs != [2]int{maxPageSize, 10} {
		t.Fatalf("unexpected list args: %v", users.listArgs)
	}

	var resp userListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Limit != maxPageSize || resp.Offset != 10 || len(resp.Users) != 1 {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	c, _ = newTestContext(http.MethodGet, "/v1/admin/users", "")
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if users.listArgs != [2]int{defaultPageSize, 0} {
		t.Fatalf("unexpected default args: %v", users.listArgs)
	}
}

func TestAdminHandler_ListUsers_BadQuery(t *testing.T) {
	h, _, _ := newAdminHandler()

	for _, q := range []string{"limit=abc", "offset=-1"} {
		c, _ := newTestContext(http.MethodGet, "/v1/admin/users?"+q, "")
		if code := httpStatus(t, h.ListUsers(c)); code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", q, code)
		}
	}
}

func TestAdminHandler_Exists(t *testing.T) {
	h, _, _ := newAdminHandler()

	c, rec := newTestContext(http.MethodGet, "/v1/admin/users/exists?email=alice@example.com", "")
	if err := h.Exists(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp existsResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Exists || resp.Email != "alice@example.com" {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	c, _ = newTestContext(http.MethodGet, "/v1/admin/users/exists", "")
	if code := httpStatus(t, h.Exists(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestAdminHandler_GetUser(t *testing.T) {
	h, _, _ := newAdminHandler()

	c, rec := newTestContext(http.MethodGet, "/v1/admin/users/u1", "")
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if err := h.GetUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newTestContext(http.MethodGet, "/v1/admin/users/nope", "")
	c.SetParamNames("id")
	c.SetParamValues("nope")
	if err := h.GetUser(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminHandler_UpdateVIP(t *testing.T) {
	h, users, _ := newAdminHandler()

	for i := 0; i < 2; i++ {
		c, rec := newTestContext(http.MethodPut, "/v1/admin/users/u1/vip", `{"vip_status":true}`)
		c.SetParamNames("id")
		c.SetParamValues("u1")
		if err := h.UpdateVIP(c); err != nil {
			t.Fatalf("call %d: handler error: %v", i, err)
		}
		if rec.Code != http.StatusNoContent {
			t.Fatalf("call %d: expected 204, got %d", i, rec.Code)
		}
	}
	if len(users.vipCalls) != 2 || !users.vipCalls[0] || !users.vipCalls[1] {
		t.Fatalf("unexpected vip calls: %v", users.vipCalls)
	}
}

func TestAdminHandler_UpdateVIP_FalseIsAccepted(t *testing.T) {
	h, users, _ := newAdminHandler()

	c, _ := newTestContext(http.MethodPut, "/v1/admin/users/u1/vip", `{"vip_status":false}`)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if err := h.UpdateVIP(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(users.vipCalls) != 1 || users.vipCalls[0] {
		t.Fatalf("unexpected vip calls: %v", users.vipCalls)
	}
}

func TestAdminHandler_UpdateVIP_MissingField(t *testing.T) {
	h, _, _ := newAdminHandler()

	c, _ := newTestContext(http.MethodPut, "/v1/admin/users/u1/vip", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if code := httpStatus(t, h.UpdateVIP(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestAdminHandler_StatsAndAudit(t *testing.T) {
	h, users, audit := newAdminHandler()
	users.stats = domain.UserStats{TotalUsers: 3, VIPUsers: 1, AdminUsers: 1, TradingAccounts: 15}
	audit.events = []domain.AuditEvent{{ID: "e1", Action: domain.ActionUserLogin}}

	c, rec := newTestContext(http.MethodGet, "/v1/admin/stats", "")
	if err := h.Stats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var stats statsResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.TotalUsers != 3 || stats.TradingAccounts != 15 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	c, rec = newTestContext(http.MethodGet, "/v1/admin/audit?limit=5", "")
	if err := h.Audit(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var events auditListResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &events)
	if audit.limit != 5 || len(events.Events) != 1 || events.Events[0].Action != domain.ActionUserLogin {
		t.Fatalf("unexpected audit payload: %+v (limit %d)", events, audit.limit)
	}
}
