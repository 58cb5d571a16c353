package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
	"github.com/autotradevip/atv-backend/internal/pkg/metrics"
)

type auditService struct {
	repo      ports.AuditRepository
	publisher ports.AuditPublisher
	log       zerolog.Logger
}

// NewAuditService returns an AuditService. publisher may be nil.
func NewAuditService(repo ports.AuditRepository, publisher ports.AuditPublisher, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, publisher: publisher, log: log}
}

// Process persists the event, then forwards it to the stream. Stream
// failures are logged only; the stored row is authoritative.
func (s *auditService) Process(ctx context.Context, in ports.AuditEventInput) error {
	start := time.Now()

	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	event := &domain.AuditEvent{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Action:    in.Action,
		IPAddress: in.Meta.IPAddress,
		UserAgent: in.Meta.UserAgent,
		Metadata:  in.Metadata,
		CreatedAt: at,
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues(in.Action, "error").Inc()
		return fmt.Errorf("process audit event: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("action", in.Action).Msg("failed to publish audit event")
		}
	}

	metrics.AuditEventsTotal.WithLabelValues(in.Action, "stored").Inc()
	metrics.AuditProcessingDuration.Observe(time.Since(start).Seconds())
	s.log.Debug().Str("action", in.Action).Str("user_id", in.UserID).Msg("audit event stored")
	return nil
}

func (s *auditService) ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	return s.repo.ListRecent(ctx, clampLimit(limit))
}
