package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/healthdesk/medvault/internal/models"
)

// SQLitePatientRepository implements patient-record persistence. The
// schema has no plaintext diagnosis column; rows only ever carry the
// ciphertext produced by the codec.
type SQLitePatientRepository struct {
	DB *sql.DB
}

// NewSQLitePatientRepository creates a patient repository over db.
func NewSQLitePatientRepository(db *sql.DB) *SQLitePatientRepository {
	return &SQLitePatientRepository{DB: db}
}

const patientColumns = `patient_id, name, age, gender, contact, diagnosis_encrypted, admitted_at, anonymized`

func scanPatient(scan func(...any) error) (*models.PatientRecord, error) {
	var (
		rec        models.PatientRecord
		admitted   string
		anonymized int
	)
	if err := scan(&rec.ID, &rec.Name, &rec.Age, &rec.Gender, &rec.Contact,
		&rec.Diagnosis, &admitted, &anonymized); err != nil {
		return nil, err
	}
	rec.Anonymized = anonymized != 0
	var err error
	if rec.AdmittedAt, err = time.Parse(timeLayout, admitted); err != nil {
		return nil, fmt.Errorf("parse admitted_at: %w", err)
	}
	return &rec, nil
}

// Insert persists a new patient record within q.
func (r *SQLitePatientRepository) Insert(ctx context.Context, q Querier, rec *models.PatientRecord) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO patients (`+patientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Name, rec.Age, rec.Gender, rec.Contact, rec.Diagnosis,
		rec.AdmittedAt.UTC().Format(timeLayout), boolToInt(rec.Anonymized))
	if err != nil {
		return fmt.Errorf("%w: insert patient: %v", models.ErrStorage, err)
	}
	return nil
}

// GetByID fetches one record. Returns models.ErrNotFound for an
// unknown id. q may be a transaction so reads participate in
// read-modify-write operations.
func (r *SQLitePatientRepository) GetByID(ctx context.Context, q Querier, id string) (*models.PatientRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE patient_id = ?`, id)
	rec, err := scanPatient(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get patient: %v", models.ErrStorage, err)
	}
	return rec, nil
}

// List returns patients ordered by admission time, newest first.
// Anonymized records are included only when requested.
func (r *SQLitePatientRepository) List(ctx context.Context, includeAnonymized bool) ([]models.PatientRecord, error) {
	query := `SELECT ` + patientColumns + ` FROM patients`
	if !includeAnonymized {
		query += ` WHERE anonymized = 0`
	}
	query += ` ORDER BY admitted_at DESC, patient_id`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list patients: %v", models.ErrStorage, err)
	}
	defer rows.Close()

	var records []models.PatientRecord
	for rows.Next() {
		rec, err := scanPatient(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scan patient: %v", models.ErrStorage, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list patients: %v", models.ErrStorage, err)
	}
	return records, nil
}

// Update rewrites the mutable fields of an existing record within q.
// Returns models.ErrNotFound if the id is unknown.
func (r *SQLitePatientRepository) Update(ctx context.Context, q Querier, rec *models.PatientRecord) error {
	res, err := q.ExecContext(ctx, `
		UPDATE patients
		   SET name = ?, age = ?, gender = ?, contact = ?,
		       diagnosis_encrypted = ?, anonymized = ?
		 WHERE patient_id = ?
	`, rec.Name, rec.Age, rec.Gender, rec.Contact, rec.Diagnosis,
		boolToInt(rec.Anonymized), rec.ID)
	if err != nil {
		return fmt.Errorf("%w: update patient: %v", models.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update patient: %v", models.ErrStorage, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Counts returns total and anonymized patient counts for the stats
// summary.
func (r *SQLitePatientRepository) Counts(ctx context.Context) (total, anonymized int64, err error) {
	err = r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(anonymized), 0) FROM patients
	`).Scan(&total, &anonymized)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: patient counts: %v", models.ErrStorage, err)
	}
	return total, anonymized, nil
}
