package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

const DefaultTopic = "atv.audit"

var _ ports.AuditPublisher = (*AuditPublisher)(nil)

// AuditPublisher streams stored audit events to a Kafka topic, keyed by user
// ID so a consumer sees one user's events in order.
type AuditPublisher struct {
	writer messageWriter
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type auditMessage struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id,omitempty"`
	Action    string            `json:"action"`
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewAuditPublisher creates an asynchronous writer for topic. Delivery
// errors surface through the writer's completion callback and are logged.
func NewAuditPublisher(brokers []string, topic string, log zerolog.Logger) *AuditPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Async:    true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn().Err(err).Int("messages", len(messages)).Str("topic", topic).Msg("kafka audit delivery failed")
			}
		},
	}
	return &AuditPublisher{writer: w}
}

func (p *AuditPublisher) Publish(ctx context.Context, e *domain.AuditEvent) error {
	msg, err := encodeMessage(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

func encodeMessage(e *domain.AuditEvent) (kafka.Message, error) {
	payload, err := json.Marshal(auditMessage{
		ID:        e.ID,
		UserID:    e.UserID,
		Action:    e.Action,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt.UTC(),
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode audit event: %w", err)
	}
	return kafka.Message{Key: []byte(e.UserID), Value: payload}, nil
}

// Close flushes pending messages and releases the writer.
func (p *AuditPublisher) Close() error {
	return p.writer.Close()
}
