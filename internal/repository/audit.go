package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/healthdesk/medvault/internal/models"
)

// SQLiteAuditRepository persists the append-only audit ledger. It is
// the only code that writes the logs table, and it exposes no update
// or delete operation under any role.
type SQLiteAuditRepository struct {
	DB *sql.DB
}

// NewSQLiteAuditRepository creates an audit repository over db.
func NewSQLiteAuditRepository(db *sql.DB) *SQLiteAuditRepository {
	return &SQLiteAuditRepository{DB: db}
}

// Insert appends one ledger entry within q and returns its assigned
// id. Callers performing a record mutation pass their transaction so
// the entry commits atomically with the action it describes.
func (r *SQLiteAuditRepository) Insert(ctx context.Context, q Querier, e *models.LogEntry) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO logs (actor_id, username, role, action, at, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ActorID, e.Username, string(e.Role), string(e.Action),
		e.At.UTC().Format(timeLayout), e.Detail)
	if err != nil {
		return 0, fmt.Errorf("%w: append log: %v", models.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: log id: %v", models.ErrStorage, err)
	}
	return id, nil
}

// AuditFilter narrows an audit query. Zero values mean "no filter".
type AuditFilter struct {
	Username string
	Role     models.Role
	Action   models.Action
	From     time.Time
	To       time.Time
}

// Query returns ledger entries matching the filter, ordered by
// timestamp ascending with ties broken by insertion order.
func (r *SQLiteAuditRepository) Query(ctx context.Context, f AuditFilter) ([]models.LogEntry, error) {
	var (
		conds []string
		args  []any
	)
	if f.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, f.Username)
	}
	if f.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, string(f.Role))
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, string(f.Action))
	}
	if !f.From.IsZero() {
		conds = append(conds, "at >= ?")
		args = append(args, f.From.UTC().Format(timeLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, "at <= ?")
		args = append(args, f.To.UTC().Format(timeLayout))
	}

	query := `SELECT log_id, actor_id, username, role, action, at, detail FROM logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY at ASC, log_id ASC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query logs: %v", models.ErrStorage, err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var (
			e      models.LogEntry
			role   string
			action string
			at     string
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Username, &role, &action, &at, &e.Detail); err != nil {
			return nil, fmt.Errorf("%w: scan log: %v", models.ErrStorage, err)
		}
		e.Role = models.Role(role)
		e.Action = models.Action(action)
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("%w: parse log time: %v", models.ErrStorage, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query logs: %v", models.ErrStorage, err)
	}
	return entries, nil
}

// Count returns the number of ledger entries.
func (r *SQLiteAuditRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count logs: %v", models.ErrStorage, err)
	}
	return n, nil
}
