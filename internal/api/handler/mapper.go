package handler

import (
	"strings"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	first, last := req.FirstName, req.LastName
	if first == "" && last == "" {
		first, last = splitFullName(req.FullName)
	}
	return ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: first,
		LastName:  last,
		FullName:  strings.TrimSpace(req.FullName),
		Phone:     strings.TrimSpace(req.Phone),
	}
}

func toProfile(req updateProfileRequest) domain.Profile {
	return domain.Profile{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		FullName:  strings.TrimSpace(req.FullName),
		Phone:     strings.TrimSpace(req.Phone),
	}
}

// nameLimit is the column width of first_name and last_name.
const nameLimit = 100

// splitFullName puts the first word in first name and the rest in last name,
// each cut to nameLimit runes.
func splitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return truncateRunes(parts[0], nameLimit), ""
	default:
		return truncateRunes(parts[0], nameLimit), truncateRunes(strings.Join(parts[1:], " "), nameLimit)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName,
		Phone:     u.Phone,
		IsAdmin:   u.IsAdmin,
		VIPStatus: u.VIPStatus,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toAccountResponses(accounts []domain.TradingAccount) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{
			ID:             a.ID,
			BrokerName:     a.BrokerName,
			AccountBalance: a.Balance.StringFixed(2),
			IsActive:       a.IsActive,
			CreatedAt:      a.CreatedAt.UTC(),
		})
	}
	return out
}

func toStatsResponse(s domain.UserStats) statsResponse {
	return statsResponse{
		TotalUsers:      s.TotalUsers,
		VIPUsers:        s.VIPUsers,
		AdminUsers:      s.AdminUsers,
		TradingAccounts: s.TradingAccounts,
	}
}

func toAuditResponses(events []domain.AuditEvent) []auditEventResponse {
	out := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventResponse{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			IPAddress: e.IPAddress,
			UserAgent: e.UserAgent,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt.UTC(),
		})
	}
	return out
}
