package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/healthdesk/medvault/internal/crypto"
	"github.com/healthdesk/medvault/internal/models"
	"github.com/healthdesk/medvault/internal/repository"
)

// txDB returns a sqlmock database used only for transaction plumbing;
// the fakes below hold the actual data.
func txDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testCodec(t *testing.T) *crypto.Codec {
	t.Helper()
	ks := &crypto.Keyset{}
	for i := range ks.EncryptionKey {
		ks.EncryptionKey[i] = byte(i)
	}
	for i := range ks.Pepper {
		ks.Pepper[i] = byte(i + 100)
	}
	c, err := crypto.NewCodec(ks)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

var noplog = zap.NewNop()

// memAudit is an in-memory append-only ledger.
type memAudit struct {
	entries []models.LogEntry
}

func (m *memAudit) Insert(_ context.Context, _ repository.Querier, e *models.LogEntry) (int64, error) {
	stored := *e
	stored.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, stored)
	return stored.ID, nil
}

func (m *memAudit) Query(_ context.Context, f repository.AuditFilter) ([]models.LogEntry, error) {
	var out []models.LogEntry
	for _, e := range m.entries {
		if f.Username != "" && e.Username != f.Username {
			continue
		}
		if f.Role != "" && e.Role != f.Role {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memAudit) Count(context.Context) (int64, error) {
	return int64(len(m.entries)), nil
}

// byAction returns the entries with the given action kind.
func (m *memAudit) byAction(a models.Action) []models.LogEntry {
	var out []models.LogEntry
	for _, e := range m.entries {
		if e.Action == a {
			out = append(out, e)
		}
	}
	return out
}

// memPatients is an in-memory patient store.
type memPatients struct {
	records map[string]models.PatientRecord
	order   []string
}

func newMemPatients() *memPatients {
	return &memPatients{records: make(map[string]models.PatientRecord)}
}

func (m *memPatients) Insert(_ context.Context, _ repository.Querier, rec *models.PatientRecord) error {
	m.records[rec.ID] = *rec
	m.order = append(m.order, rec.ID)
	return nil
}

func (m *memPatients) GetByID(_ context.Context, _ repository.Querier, id string) (*models.PatientRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := rec
	return &copied, nil
}

func (m *memPatients) List(_ context.Context, includeAnonymized bool) ([]models.PatientRecord, error) {
	var out []models.PatientRecord
	for _, id := range m.order {
		rec := m.records[id]
		if !includeAnonymized && rec.Anonymized {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memPatients) Update(_ context.Context, _ repository.Querier, rec *models.PatientRecord) error {
	if _, ok := m.records[rec.ID]; !ok {
		return models.ErrNotFound
	}
	m.records[rec.ID] = *rec
	return nil
}

func (m *memPatients) Counts(context.Context) (total, anonymized int64, err error) {
	for _, rec := range m.records {
		total++
		if rec.Anonymized {
			anonymized++
		}
	}
	return total, anonymized, nil
}

// memUsers is an in-memory credential store.
type memUsers struct {
	users  map[string]models.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]models.User)}
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := u
	return &copied, nil
}

func (m *memUsers) Insert(_ context.Context, _ repository.Querier, u *models.User) (int64, error) {
	m.nextID++
	stored := *u
	stored.ID = m.nextID
	m.users[u.Username] = stored
	return m.nextID, nil
}

func (m *memUsers) List(context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Disable(_ context.Context, _ repository.Querier, username string) error {
	u, ok := m.users[username]
	if !ok {
		return models.ErrNotFound
	}
	u.Disabled = true
	m.users[username] = u
	return nil
}
