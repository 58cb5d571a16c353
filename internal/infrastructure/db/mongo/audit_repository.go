package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuditEvent struct {
	ID        string            `bson:"_id"`
	UserID    string            `bson:"user_id,omitempty"`
	Action    string            `bson:"action"`
	IPAddress string            `bson:"ip_address,omitempty"`
	UserAgent string            `bson:"user_agent,omitempty"`
	Metadata  map[string]string `bson:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at"`
}

// Insert persists an event to the audit_logs collection.
func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEvent) error {
	_, err := r.coll.InsertOne(ctx, mongoAuditEvent{
		ID:        e.ID,
		UserID:    e.UserID,
		Action:    e.Action,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAuditEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.AuditEvent{
			ID:        d.ID,
			UserID:    d.UserID,
			Action:    d.Action,
			IPAddress: d.IPAddress,
			UserAgent: d.UserAgent,
			Metadata:  d.Metadata,
			CreatedAt: d.CreatedAt,
		})
	}
	return events, nil
}

func (r *AuditRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("purge audit events: %w", err)
	}
	return res.DeletedCount, nil
}
