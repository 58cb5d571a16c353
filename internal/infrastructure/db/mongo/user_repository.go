package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

var _ ports.UserRepository = (*MongoUserRepository)(nil)

// compensationTimeout bounds the cleanup after a failed account insert.
const compensationTimeout = 5 * time.Second

type MongoUserRepository struct {
	users    *mongo.Collection
	accounts *mongo.Collection
	log      zerolog.Logger
}

func NewUserRepository(db *mongo.Database, log zerolog.Logger) *MongoUserRepository {
	return &MongoUserRepository{
		users:    db.Collection(usersCollection),
		accounts: db.Collection(accountsCollection),
		log:      log,
	}
}

type mongoUser struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
	FirstName    string `bson:"first_name"`
	LastName     string `bson:"last_name"`
	FullName     string `bson:"full_name"`
	Phone        string `bson:"phone"`
	IsAdmin      bool   `bson:"is_admin"`
	VIPStatus    bool   `bson:"vip_status"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

// Balances are stored as decimal strings to avoid float rounding.
type mongoAccount struct {
	ID         string `bson:"_id"`
	UserID     string `bson:"user_id"`
	BrokerName string `bson:"broker_name"`
	Balance    string `bson:"account_balance"`
	IsActive   bool   `bson:"is_active"`
	CreatedAt  int64  `bson:"created_at"`
}

// CreateWithAccounts inserts the user, then its accounts. Without a replica
// set there is no multi-document transaction, so a failed account insert
// removes the user again.
func (r *MongoUserRepository) CreateWithAccounts(ctx context.Context, user *domain.User, accounts []domain.TradingAccount) (*domain.User, error) {
	doc := mongoUser{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		FullName:     user.FullName,
		Phone:        user.Phone,
		IsAdmin:      user.IsAdmin,
		VIPStatus:    user.VIPStatus,
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if len(accounts) > 0 {
		docs := make([]interface{}, 0, len(accounts))
		for _, a := range accounts {
			docs = append(docs, mongoAccount{
				ID:         a.ID,
				UserID:     user.ID,
				BrokerName: a.BrokerName,
				Balance:    a.Balance.StringFixed(2),
				IsActive:   a.IsActive,
				CreatedAt:  a.CreatedAt.Unix(),
			})
		}
		if _, err := r.accounts.InsertMany(ctx, docs); err != nil {
			if cerr := r.removeUser(ctx, user.ID); cerr != nil {
				r.log.Error().Err(cerr).Str("user_id", user.ID).Msg("failed to remove partially created user")
			}
			return nil, fmt.Errorf("insert trading accounts: %w", err)
		}
	}

	// fetch back so timestamps carry the stored precision
	return r.FindByID(ctx, user.ID)
}

// removeUser deletes a user and its accounts. It detaches from ctx so the
// cleanup still runs when the insert failed because ctx was cancelled.
func (r *MongoUserRepository) removeUser(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	_, accErr := r.accounts.DeleteMany(ctx, bson.M{"user_id": id})
	_, userErr := r.users.DeleteOne(ctx, bson.M{"_id": id})
	return errors.Join(accErr, userErr)
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return n > 0, nil
}

// UpdateVIPStatus checks MatchedCount, not ModifiedCount, so re-applying the
// stored value is still a success.
func (r *MongoUserRepository) UpdateVIPStatus(ctx context.Context, id string, vip bool) error {
	return r.set(ctx, id, bson.M{"vip_status": vip})
}

func (r *MongoUserRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	return r.set(ctx, id, bson.M{"is_admin": admin})
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.set(ctx, id, bson.M{"password_hash": passwordHash})
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id string, p domain.Profile) error {
	return r.set(ctx, id, bson.M{
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"full_name":  p.FullName,
		"phone":      p.Phone,
	})
}

func (r *MongoUserRepository) set(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC().Unix()
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) ListTradingAccounts(ctx context.Context, userID string) ([]domain.TradingAccount, error) {
	opts := options.Find().SetSort(bson.D{{Key: "broker_name", Value: 1}})
	cur, err := r.accounts.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find trading accounts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAccount
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode trading accounts: %w", err)
	}

	accounts := make([]domain.TradingAccount, 0, len(docs))
	for _, d := range docs {
		balance, err := decimal.NewFromString(d.Balance)
		if err != nil {
			return nil, fmt.Errorf("parse balance %q: %w", d.Balance, err)
		}
		accounts = append(accounts, domain.TradingAccount{
			ID:         d.ID,
			UserID:     d.UserID,
			BrokerName: d.BrokerName,
			Balance:    balance,
			IsActive:   d.IsActive,
			CreatedAt:  unixToTime(d.CreatedAt),
		})
	}
	return accounts, nil
}

func (r *MongoUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := r.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

func (r *MongoUserRepository) Stats(ctx context.Context) (domain.UserStats, error) {
	var (
		s   domain.UserStats
		err error
	)
	if s.TotalUsers, err = r.users.CountDocuments(ctx, bson.M{}); err != nil {
		return domain.UserStats{}, fmt.Errorf("count users: %w", err)
	}
	if s.VIPUsers, err = r.users.CountDocuments(ctx, bson.M{"vip_status": true}); err != nil {
		return domain.UserStats{}, fmt.Errorf("count vip users: %w", err)
	}
	if s.AdminUsers, err = r.users.CountDocuments(ctx, bson.M{"is_admin": true}); err != nil {
		return domain.UserStats{}, fmt.Errorf("count admin users: %w", err)
	}
	if s.TradingAccounts, err = r.accounts.CountDocuments(ctx, bson.M{}); err != nil {
		return domain.UserStats{}, fmt.Errorf("count trading accounts: %w", err)
	}
	return s, nil
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           mu.ID,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		FirstName:    mu.FirstName,
		LastName:     mu.LastName,
		FullName:     mu.FullName,
		Phone:        mu.Phone,
		IsAdmin:      mu.IsAdmin,
		VIPStatus:    mu.VIPStatus,
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
}
