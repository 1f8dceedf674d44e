// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"quads-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = `
	telegram_id, username, timezone, checked_total, checked_unique, deleted,
	passed, messages_total, check_id_cache, created_at, updated_at
`

// UserRepository handles user record persistence.
type UserRepository struct {
	pool            *pgxpool.Pool
	defaultTimezone string
}

// NewUserRepository creates a new UserRepository instance. New records get
// defaultTimezone.
func NewUserRepository(pool *pgxpool.Pool, defaultTimezone string) *UserRepository {
	return &UserRepository{pool: pool, defaultTimezone: defaultTimezone}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.TelegramID,
		&user.Username,
		&user.Timezone,
		&user.CheckedTotal,
		&user.CheckedUnique,
		&user.Deleted,
		&user.Passed,
		&user.MessagesTotal,
		&user.CheckIDCache,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// WithUser loads the user's record, creating it on first contact, runs fn on
// it and writes the record back in one transaction. The row stays locked
// (SELECT ... FOR UPDATE) until commit, so concurrent updates for the same
// user serialize in the database as well as in process.
//
// The record is saved whether or not fn fails; fn's error is returned after
// the commit. A non-empty username replaces the stored one.
func (r *UserRepository) WithUser(ctx context.Context, telegramID int64, username string, fn func(*model.User) error) (*model.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Warn().Err(rbErr).Int64("user_id", telegramID).Msg("Rollback failed")
		}
	}()

	const insertQuery = `
		INSERT INTO users (telegram_id, username, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (telegram_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, insertQuery, telegramID, username, r.defaultTimezone); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	selectQuery := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1 FOR UPDATE`
	user, err := scanUser(tx.QueryRow(ctx, selectQuery, telegramID))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if username != "" {
		user.Username = username
	}

	fnErr := fn(user)

	const updateQuery = `
		UPDATE users
		SET username = $2, timezone = $3, checked_total = $4, checked_unique = $5,
			deleted = $6, passed = $7, messages_total = $8, check_id_cache = $9,
			updated_at = NOW()
		WHERE telegram_id = $1
		RETURNING updated_at
	`
	cache := user.CheckIDCache
	if cache == nil {
		cache = []string{}
	}
	err = tx.QueryRow(ctx, updateQuery,
		user.TelegramID,
		user.Username,
		user.Timezone,
		user.CheckedTotal,
		user.CheckedUnique,
		user.Deleted,
		user.Passed,
		user.MessagesTotal,
		cache,
	).Scan(&user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit user: %w", err)
	}

	return user, fnErr
}

// GetByID retrieves a user by their Telegram ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// List returns every user, best unique check count first.
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY checked_unique DESC, telegram_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Clear deletes every user record and returns how many were removed.
func (r *UserRepository) Clear(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear users: %w", err)
	}
	return tag.RowsAffected(), nil
}
