package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/healthdesk/medvault/internal/middleware"
	"github.com/healthdesk/medvault/internal/models"
	"github.com/healthdesk/medvault/internal/repository"
	"github.com/healthdesk/medvault/internal/service"
)

// AuditService defines the ledger operations required by the handlers.
type AuditService interface {
	Query(ctx context.Context, actor models.Actor, f repository.AuditFilter) ([]models.LogEntry, error)
	ExportCSV(ctx context.Context, actor models.Actor) ([]byte, error)
}

// StatsService provides the aggregate summary.
type StatsService interface {
	Summary(ctx context.Context, actor models.Actor) (*service.Stats, error)
}

// AuditHandler handles the /api/audit and /api/stats routes.
type AuditHandler struct {
	Audit AuditService
	Stats StatsService
}

// Query handles GET /api/audit with optional filters: username, role,
// action, from, to (RFC 3339).
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	q := r.URL.Query()
	f := repository.AuditFilter{
		Username: q.Get("username"),
		Role:     models.Role(q.Get("role")),
		Action:   models.Action(q.Get("action")),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			http.Error(w, "invalid 'from' timestamp", http.StatusBadRequest)
			return
		}
		f.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			http.Error(w, "invalid 'to' timestamp", http.StatusBadRequest)
			return
		}
		f.To = t
	}

	entries, err := h.Audit.Query(r.Context(), actor, f)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// Export handles GET /api/audit/export.
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	data, err := h.Audit.ExportCSV(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit.csv"`)
	_, _ = w.Write(data)
}

// Summary handles GET /api/stats.
func (h *AuditHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	stats, err := h.Stats.Summary(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}
