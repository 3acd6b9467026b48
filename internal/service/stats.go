package service

import (
	"context"

	"github.com/healthdesk/medvault/internal/models"
)

// Stats is an aggregate summary of the store for the admin dashboard.
type Stats struct {
	Patients           int64 `json:"patients"`
	AnonymizedPatients int64 `json:"anonymized_patients"`
	Users              int64 `json:"users"`
	LogEntries         int64 `json:"log_entries"`
}

// StatsService computes store-wide counts. Aggregates carry no
// identifying data, so the view is gated but not itself ledgered.
type StatsService struct {
	patients PatientRepository
	users    UserRepository
	audit    AuditRepository
	recorder *AuditService
}

// NewStatsService constructs the stats service.
func NewStatsService(patients PatientRepository, users UserRepository, audit AuditRepository, recorder *AuditService) *StatsService {
	return &StatsService{patients: patients, users: users, audit: audit, recorder: recorder}
}

// Summary returns the counts. Admin only.
func (s *StatsService) Summary(ctx context.Context, actor models.Actor) (*Stats, error) {
	if actor.Role != models.RoleAdmin {
		_ = s.recorder.Record(ctx, actor, models.ActionAccessDenied, "attempted Stats")
		return nil, models.ErrAuthorizationDenied
	}
	total, anonymized, err := s.patients.Counts(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.audit.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Patients:           total,
		AnonymizedPatients: anonymized,
		Users:              int64(len(users)),
		LogEntries:         logs,
	}, nil
}
