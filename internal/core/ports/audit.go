package ports

import (
	"context"
	"time"

	"github.com/autotradevip/atv-backend/internal/core/domain"
)

// AuditEventInput is what services hand to the audit pipeline.
type AuditEventInput struct {
	UserID   string
	Action   string
	Meta     RequestMeta
	Metadata map[string]string
	At       time.Time
}

// AuditRecorder accepts events for asynchronous processing. Implementations
// must not block the caller on persistence.
type AuditRecorder interface {
	Record(event AuditEventInput)
}

// AuditRepository persists the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditPublisher forwards persisted events to an external stream.
type AuditPublisher interface {
	Publish(ctx context.Context, event *domain.AuditEvent) error
}

// AuditService processes a single audit event end-to-end.
type AuditService interface {
	Process(ctx context.Context, event AuditEventInput) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}
