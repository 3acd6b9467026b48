package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/healthdesk/medvault/internal/models"
	"github.com/healthdesk/medvault/internal/rbac"
	"github.com/healthdesk/medvault/internal/repository"
)

// AuditRepository defines the persistence operations required by the
// audit service. The ledger is append-only: there is deliberately no
// update or delete in this interface.
type AuditRepository interface {
	// Insert appends one entry within q and returns its id.
	Insert(ctx context.Context, q repository.Querier, e *models.LogEntry) (int64, error)
	// Query returns entries matching the filter, timestamp ascending,
	// ties broken by insertion order.
	Query(ctx context.Context, f repository.AuditFilter) ([]models.LogEntry, error)
	// Count returns the number of ledger entries.
	Count(ctx context.Context) (int64, error)
}

// AuditService owns the audit ledger. It is the single recording
// interface for every other component; nothing else touches the logs
// table.
type AuditService struct {
	db   *sql.DB
	repo AuditRepository
	log  *zap.Logger

	// mu serializes standalone appends so insertion order is never
	// violated even if multiple sessions are introduced.
	mu sync.Mutex
}

// NewAuditService constructs the audit service.
func NewAuditService(db *sql.DB, repo AuditRepository, log *zap.Logger) *AuditService {
	return &AuditService{db: db, repo: repo, log: log}
}

// entry builds a ledger entry, capturing the actor's role as held
// right now. Role changes later must not rewrite history.
func entry(actor models.Actor, action models.Action, detail string) *models.LogEntry {
	return &models.LogEntry{
		ActorID:  actor.ID,
		Username: actor.Username,
		Role:     actor.Role,
		Action:   action,
		At:       time.Now().UTC(),
		Detail:   detail,
	}
}

// RecordTx appends an entry within the caller's transaction so the
// entry commits atomically with the action it describes.
func (s *AuditService) RecordTx(ctx context.Context, q repository.Querier, actor models.Actor, action models.Action, detail string) error {
	if _, err := s.repo.Insert(ctx, q, entry(actor, action, detail)); err != nil {
		return err
	}
	return nil
}

// Record appends an entry outside any transaction, for actions that do
// not mutate records (logins, denials, decrypt views). Appends are
// serialized.
func (s *AuditService) Record(ctx context.Context, actor models.Actor, action models.Action, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.repo.Insert(ctx, s.db, entry(actor, action, detail)); err != nil {
		s.log.Error("audit append failed",
			zap.String("action", string(action)),
			zap.String("username", actor.Username),
			zap.Error(err))
		return err
	}
	return nil
}

// RecordDenied logs a refused operation attempt. Denials use their own
// action kind so they are distinguishable from the successful
// equivalent.
func (s *AuditService) RecordDenied(ctx context.Context, actor models.Actor, op rbac.Operation) {
	// An audit failure here must not mask the denial itself.
	_ = s.Record(ctx, actor, models.ActionAccessDenied, "attempted "+string(op))
}

// Query returns ledger entries matching the filter. Admin only; the
// view itself is a logged action.
func (s *AuditService) Query(ctx context.Context, actor models.Actor, f repository.AuditFilter) ([]models.LogEntry, error) {
	if !rbac.Authorize(actor.Role, rbac.OpViewAuditLog).Allowed() {
		s.RecordDenied(ctx, actor, rbac.OpViewAuditLog)
		return nil, models.ErrAuthorizationDenied
	}
	entries, err := s.repo.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.Record(ctx, actor, models.ActionViewAuditLog, "queried audit log"); err != nil {
		return nil, err
	}
	return entries, nil
}

// auditCSVHeader is the stable column order of the ledger export.
var auditCSVHeader = []string{"id", "actor_id", "username", "role", "action", "timestamp", "detail"}

// ExportCSV serializes the full ledger as CSV. Admin only; the export
// is a logged action.
func (s *AuditService) ExportCSV(ctx context.Context, actor models.Actor) ([]byte, error) {
	if !rbac.Authorize(actor.Role, rbac.OpExportData).Allowed() {
		s.RecordDenied(ctx, actor, rbac.OpExportData)
		return nil, models.ErrAuthorizationDenied
	}
	entries, err := s.repo.Query(ctx, repository.AuditFilter{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(auditCSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.ActorID, 10),
			e.Username,
			string(e.Role),
			string(e.Action),
			e.At.UTC().Format(time.RFC3339Nano),
			e.Detail,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	if err := s.Record(ctx, actor, models.ActionExportData, "exported audit log"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
