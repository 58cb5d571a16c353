package mongo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories depend on, most
// importantly the unique email index. Creating an existing index with the
// same spec is a no-op, so this runs at every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log zerolog.Logger) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		accountsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "broker_name", Value: 1}}},
		},
		auditCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}

	log.Info().Str("database", db.Name()).Msg("mongo indexes ensured")
	return nil
}
