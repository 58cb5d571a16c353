package domain

import "time"

// Audit actions recorded by the services.
const (
	ActionUserRegistered    = "user.registered"
	ActionUserLogin         = "user.login"
	ActionUserLoginFailed   = "user.login_failed"
	ActionUserLogout        = "user.logout"
	ActionProfileUpdated    = "user.profile_updated"
	ActionPasswordChanged   = "user.password_changed"
	ActionVIPUpdated        = "user.vip_updated"
	ActionAdminBootstrapped = "admin.bootstrapped"
)

// AuditEvent is a single entry of the security audit trail.
type AuditEvent struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id,omitempty"`
	Action    string            `json:"action"`
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
