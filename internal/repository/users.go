package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/healthdesk/medvault/internal/models"
)

// SQLiteUserRepository implements credential persistence against the
// SQLite store. Users are never deleted, only soft-disabled.
type SQLiteUserRepository struct {
	DB *sql.DB
}

// NewSQLiteUserRepository creates a user repository over db.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{DB: db}
}

// GetByUsername fetches a user by login name. Returns
// models.ErrNotFound if no such user exists.
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var (
		u        models.User
		role     string
		created  string
		disabled int
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, username, password_hash, role, disabled, created_at
		  FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &disabled, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", models.ErrStorage, err)
	}
	u.Role = models.Role(role)
	u.Disabled = disabled != 0
	if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("%w: parse created_at: %v", models.ErrStorage, err)
	}
	return &u, nil
}

// Insert persists a new user. q may be a transaction so provisioning
// commits together with its audit entry.
func (r *SQLiteUserRepository) Insert(ctx context.Context, q Querier, u *models.User) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, disabled, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.Username, u.PasswordHash, string(u.Role), boolToInt(u.Disabled), u.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("%w: insert user: %v", models.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: user id: %v", models.ErrStorage, err)
	}
	return id, nil
}

// List returns all users ordered by creation time, newest first.
func (r *SQLiteUserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, username, role, disabled, created_at
		  FROM users ORDER BY created_at DESC, user_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", models.ErrStorage, err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var (
			u        models.User
			role     string
			created  string
			disabled int
		)
		if err := rows.Scan(&u.ID, &u.Username, &role, &disabled, &created); err != nil {
			return nil, fmt.Errorf("%w: scan user: %v", models.ErrStorage, err)
		}
		u.Role = models.Role(role)
		u.Disabled = disabled != 0
		if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("%w: parse created_at: %v", models.ErrStorage, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list users: %v", models.ErrStorage, err)
	}
	return users, nil
}

// Disable soft-disables the named user. Returns models.ErrNotFound if
// the user does not exist.
func (r *SQLiteUserRepository) Disable(ctx context.Context, q Querier, username string) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET disabled = 1 WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("%w: disable user: %v", models.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: disable user: %v", models.ErrStorage, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
