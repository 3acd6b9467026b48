package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthdesk/medvault/internal/crypto"
	"github.com/healthdesk/medvault/internal/models"
	"github.com/healthdesk/medvault/internal/rbac"
	"github.com/healthdesk/medvault/internal/repository"
)

// PatientRepository defines the persistence operations required by the
// patient service.
type PatientRepository interface {
	Insert(ctx context.Context, q repository.Querier, rec *models.PatientRecord) error
	GetByID(ctx context.Context, q repository.Querier, id string) (*models.PatientRecord, error)
	List(ctx context.Context, includeAnonymized bool) ([]models.PatientRecord, error)
	Update(ctx context.Context, q repository.Querier, rec *models.PatientRecord) error
	Counts(ctx context.Context) (total, anonymized int64, err error)
}

// PatientService owns the patient record lifecycle. Diagnosis
// plaintext only ever exists in memory between the request and the
// codec; every persisted representation carries ciphertext.
type PatientService struct {
	db       *sql.DB
	patients PatientRepository
	codec    *crypto.Codec
	audit    *AuditService
	log      *zap.Logger
}

// NewPatientService constructs the patient service.
func NewPatientService(db *sql.DB, patients PatientRepository, codec *crypto.Codec, audit *AuditService, log *zap.Logger) *PatientService {
	return &PatientService{db: db, patients: patients, codec: codec, audit: audit, log: log}
}

// CreatePatientInput carries the fields of a new record. Diagnosis is
// plaintext here and nowhere past the codec.
type CreatePatientInput struct {
	Name      string
	Age       int
	Gender    string
	Contact   string
	Diagnosis string
}

// UpdatePatientFields carries a partial update; nil means "leave
// unchanged".
type UpdatePatientFields struct {
	Name      *string
	Age       *int
	Gender    *string
	Contact   *string
	Diagnosis *string
}

func (f UpdatePatientFields) touchesIdentity() bool {
	return f.Name != nil || f.Age != nil || f.Gender != nil || f.Contact != nil
}

// Create adds a patient record. The diagnosis is encrypted before the
// row and its audit entry commit in one transaction.
func (s *PatientService) Create(ctx context.Context, actor models.Actor, in CreatePatientInput) (*models.PatientRecord, error) {
	if !rbac.Authorize(actor.Role, rbac.OpAddPatient).Allowed() {
		s.audit.RecordDenied(ctx, actor, rbac.OpAddPatient)
		return nil, models.ErrAuthorizationDenied
	}

	ciphertext, err := s.codec.Protect(in.Diagnosis)
	if err != nil {
		return nil, fmt.Errorf("protect diagnosis: %w", err)
	}
	rec := &models.PatientRecord{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Age:        in.Age,
		Gender:     in.Gender,
		Contact:    in.Contact,
		Diagnosis:  ciphertext,
		AdmittedAt: time.Now().UTC(),
	}

	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.patients.Insert(ctx, tx, rec); err != nil {
			return err
		}
		// Detail carries the record id only; names and contacts are
		// maskable fields and must not end up in the ledger.
		return s.audit.RecordTx(ctx, tx, actor, models.ActionAddPatient, "added patient "+rec.ID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("patient added", zap.String("id", rec.ID), zap.String("by", actor.Username))
	return rec, nil
}

// Get returns a single record as a view with the acting role's list
// masking applied.
func (s *PatientService) Get(ctx context.Context, actor models.Actor, id string) (*models.RecordView, error) {
	decision := rbac.Authorize(actor.Role, rbac.OpViewPatientList)
	if !decision.Allowed() {
		s.audit.RecordDenied(ctx, actor, rbac.OpViewPatientList)
		return nil, models.ErrAuthorizationDenied
	}
	rec, err := s.patients.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	v := rbac.ApplyMasking(decision, *rec)
	return &v, nil
}

// List returns patient views with the acting role's masking applied
// fresh on every read. The view is a logged action.
func (s *PatientService) List(ctx context.Context, actor models.Actor, includeAnonymized bool) ([]models.RecordView, error) {
	decision := rbac.Authorize(actor.Role, rbac.OpViewPatientList)
	if !decision.Allowed() {
		s.audit.RecordDenied(ctx, actor, rbac.OpViewPatientList)
		return nil, models.ErrAuthorizationDenied
	}
	records, err := s.patients.List(ctx, includeAnonymized)
	if err != nil {
		return nil, err
	}
	views := make([]models.RecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, rbac.ApplyMasking(decision, rec))
	}
	if err := s.audit.Record(ctx, actor, models.ActionViewPatientList,
		"viewed patient list ("+strconv.Itoa(len(views))+" records)"); err != nil {
		return nil, err
	}
	return views, nil
}

// Update edits an existing record. Receptionists may not touch the
// diagnosis; identity fields are immutable once a record is
// anonymized. Row change and audit entry commit together.
func (s *PatientService) Update(ctx context.Context, actor models.Actor, id string, fields UpdatePatientFields) (*models.PatientRecord, error) {
	decision := rbac.Authorize(actor.Role, rbac.OpEditPatient)
	if !decision.Allowed() {
		s.audit.RecordDenied(ctx, actor, rbac.OpEditPatient)
		return nil, models.ErrAuthorizationDenied
	}
	if decision.Masks(rbac.FieldDiagnosis) && fields.Diagnosis != nil {
		s.audit.RecordDenied(ctx, actor, rbac.OpEditPatient)
		return nil, models.ErrAuthorizationDenied
	}

	var updated *models.PatientRecord
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		rec, err := s.patients.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if rec.Anonymized && fields.touchesIdentity() {
			return models.ErrAlreadyAnonymized
		}
		if fields.Name != nil {
			rec.Name = *fields.Name
		}
		if fields.Age != nil {
			rec.Age = *fields.Age
		}
		if fields.Gender != nil {
			rec.Gender = *fields.Gender
		}
		if fields.Contact != nil {
			rec.Contact = *fields.Contact
		}
		if fields.Diagnosis != nil {
			ciphertext, err := s.codec.Protect(*fields.Diagnosis)
			if err != nil {
				return fmt.Errorf("protect diagnosis: %w", err)
			}
			rec.Diagnosis = ciphertext
		}
		if err := s.patients.Update(ctx, tx, rec); err != nil {
			return err
		}
		updated = rec
		return s.audit.RecordTx(ctx, tx, actor, models.ActionEditPatient, "edited patient "+id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DecryptDiagnosis returns the diagnosis plaintext of one record.
// Admin only; every decrypt is logged, and the plaintext never appears
// in the log detail.
func (s *PatientService) DecryptDiagnosis(ctx context.Context, actor models.Actor, id string) (string, error) {
	if !rbac.Authorize(actor.Role, rbac.OpDecryptDiagnosis).Allowed() {
		s.audit.RecordDenied(ctx, actor, rbac.OpDecryptDiagnosis)
		return "", models.ErrAuthorizationDenied
	}
	rec, err := s.patients.GetByID(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	plaintext, err := s.codec.Unprotect(rec.Diagnosis)
	if err != nil {
		return "", err
	}
	if err := s.audit.Record(ctx, actor, models.ActionViewDecrypted, "decrypted diagnosis of patient "+id); err != nil {
		return "", err
	}
	return plaintext, nil
}

// Anonymize irreversibly replaces the identity fields of a record with
// deterministic tokens and sets the anonymized flag. The diagnosis
// ciphertext is left untouched: identity is erased but the medical
// content stays admin-decryptable (pseudonymization, not full
// erasure). The transition is one-way; a second call fails with
// models.ErrAlreadyAnonymized and changes nothing.
func (s *PatientService) Anonymize(ctx context.Context, actor models.Actor, id string) (*models.PatientRecord, error) {
	if !rbac.Authorize(actor.Role, rbac.OpAnonymizePatient).Allowed() {
		s.audit.RecordDenied(ctx, actor, rbac.OpAnonymizePatient)
		return nil, models.ErrAuthorizationDenied
	}

	var updated *models.PatientRecord
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		rec, err := s.patients.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if rec.Anonymized {
			return models.ErrAlreadyAnonymized
		}
		rec.Name = s.codec.Anonymize(rec.Name)
		rec.Contact = s.codec.Anonymize(rec.Contact)
		rec.Gender = s.codec.Anonymize(rec.Gender)
		rec.Age = 0
		rec.Anonymized = true
		if err := s.patients.Update(ctx, tx, rec); err != nil {
			return err
		}
		updated = rec
		return s.audit.RecordTx(ctx, tx, actor, models.ActionAnonymizePatient, "anonymized patient "+id)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("patient anonymized", zap.String("id", id), zap.String("by", actor.Username))
	return updated, nil
}

// patientCSVHeader is the stable column order of the snapshot export.
var patientCSVHeader = []string{"id", "name", "age", "gender", "contact", "diagnosis", "admitted_at", "anonymized"}

// ExportCSV serializes a patient snapshot with the acting role's list
// masking applied. Admin only; the export is a logged action.
func (s *PatientService) ExportCSV(ctx context.Context, actor models.Actor) ([]byte, error) {
	if !rbac.Authorize(actor.Role, rbac.OpExportData).Allowed() {
		s.audit.RecordDenied(ctx, actor, rbac.OpExportData)
		return nil, models.ErrAuthorizationDenied
	}
	decision := rbac.Authorize(actor.Role, rbac.OpViewPatientList)
	records, err := s.patients.List(ctx, true)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(patientCSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		v := rbac.ApplyMasking(decision, rec)
		row := []string{
			v.ID, v.Name, strconv.Itoa(v.Age), v.Gender, v.Contact,
			v.Diagnosis, v.AdmittedAt, strconv.FormatBool(v.Anonymized),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	if err := s.audit.Record(ctx, actor, models.ActionExportData, "exported patient snapshot"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
