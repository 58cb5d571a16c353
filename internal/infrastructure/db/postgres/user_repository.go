package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

var _ ports.UserRepository = (*UserRepository)(nil)

const userColumns = `id::text, email, password_hash, first_name, last_name, full_name, phone,
	is_admin, vip_status, created_at, updated_at`

// UserRepository implements ports.UserRepository on PostgreSQL.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithAccounts inserts the user and its accounts in one transaction.
func (r *UserRepository) CreateWithAccounts(ctx context.Context, user *domain.User, accounts []domain.TradingAccount) (*domain.User, error) {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create user: invalid id: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create user: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, full_name, phone,
			is_admin, vip_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		userID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.FullName,
		user.Phone,
		user.IsAdmin,
		user.VIPStatus,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range accounts {
		accountID, err := uuid.Parse(a.ID)
		if err != nil {
			return nil, fmt.Errorf("create user: invalid account id: %w", err)
		}
		batch.Queue(`
			INSERT INTO trading_accounts (id, user_id, broker_name, account_balance, is_active, created_at)
			VALUES ($1, $2, $3, $4::text::numeric, $5, $6)
		`, accountID, userID, a.BrokerName, a.Balance.StringFixed(2), a.IsActive, a.CreatedAt)
	}

	br := tx.SendBatch(ctx, batch)
	for range accounts {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return nil, fmt.Errorf("insert trading account: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("insert trading accounts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create user: commit: %w", err)
	}

	created := *user
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// UpdateVIPStatus relies on PostgreSQL counting matched rows, so writing an
// unchanged value still reports one affected row.
func (r *UserRepository) UpdateVIPStatus(ctx context.Context, id string, vip bool) error {
	return r.updateUser(ctx, id, `UPDATE users SET vip_status = $1, updated_at = NOW() WHERE id = $2`, vip)
}

func (r *UserRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	return r.updateUser(ctx, id, `UPDATE users SET is_admin = $1, updated_at = NOW() WHERE id = $2`, admin)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateUser(ctx, id, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, p domain.Profile) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, full_name = $3, phone = $4, updated_at = NOW()
		WHERE id = $5
	`, p.FirstName, p.LastName, p.FullName, p.Phone, userID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) updateUser(ctx context.Context, id, query string, value any) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrUserNotFound
	}
	tag, err := r.db.Exec(ctx, query, value, userID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListTradingAccounts(ctx context.Context, userID string) ([]domain.TradingAccount, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT id::text, user_id::text, broker_name, account_balance::text, is_active, created_at
		FROM trading_accounts
		WHERE user_id = $1
		ORDER BY broker_name
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("query trading accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.TradingAccount, 0, len(domain.DefaultBrokers))
	for rows.Next() {
		var (
			a       domain.TradingAccount
			balance string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.BrokerName, &balance, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trading account: %w", err)
		}
		a.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("parse balance %q: %w", balance, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trading accounts: %w", err)
	}
	return accounts, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Stats(ctx context.Context) (domain.UserStats, error) {
	var s domain.UserStats
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE vip_status),
			COUNT(*) FILTER (WHERE is_admin),
			(SELECT COUNT(*) FROM trading_accounts)
		FROM users
	`).Scan(&s.TotalUsers, &s.VIPUsers, &s.AdminUsers, &s.TradingAccounts)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("query user stats: %w", err)
	}
	return s, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.FullName,
		&u.Phone,
		&u.IsAdmin,
		&u.VIPStatus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}
