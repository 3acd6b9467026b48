package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/healthdesk/medvault/internal/middleware"
	"github.com/healthdesk/medvault/internal/models"
	"github.com/healthdesk/medvault/internal/service"
)

// fakePatientService implements PatientService with canned results.
type fakePatientService struct {
	rec       *models.PatientRecord
	view      *models.RecordView
	views     []models.RecordView
	plaintext string
	csv       []byte
	err       error

	lastActor models.Actor
	lastAll   bool
}

func (f *fakePatientService) Create(ctx context.Context, actor models.Actor, in service.CreatePatientInput) (*models.PatientRecord, error) {
	f.lastActor = actor
	return f.rec, f.err
}

func (f *fakePatientService) Get(ctx context.Context, actor models.Actor, id string) (*models.RecordView, error) {
	f.lastActor = actor
	return f.view, f.err
}

func (f *fakePatientService) List(ctx context.Context, actor models.Actor, includeAnonymized bool) ([]models.RecordView, error) {
	f.lastActor = actor
	f.lastAll = includeAnonymized
	return f.views, f.err
}

func (f *fakePatientService) Update(ctx context.Context, actor models.Actor, id string, fields service.UpdatePatientFields) (*models.PatientRecord, error) {
	f.lastActor = actor
	return f.rec, f.err
}

func (f *fakePatientService) DecryptDiagnosis(ctx context.Context, actor models.Actor, id string) (string, error) {
	f.lastActor = actor
	return f.plaintext, f.err
}

func (f *fakePatientService) Anonymize(ctx context.Context, actor models.Actor, id string) (*models.PatientRecord, error) {
	f.lastActor = actor
	return f.rec, f.err
}

func (f *fakePatientService) ExportCSV(ctx context.Context, actor models.Actor) ([]byte, error) {
	f.lastActor = actor
	return f.csv, f.err
}

func TestPatientHandler_Create(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		svcErr       error
		expectedCode int
	}{
		{
			name:         "success",
			body:         `{"name":"John Doe","age":45,"gender":"M","contact":"john@example.com","diagnosis":"Flu"}`,
			expectedCode: http.StatusCreated,
		},
		{
			name:         "invalid JSON",
			body:         `{`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "missing name",
			body:         `{"age":45}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "denied by policy",
			body:         `{"name":"John Doe"}`,
			svcErr:       models.ErrAuthorizationDenied,
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePatientService{rec: &models.PatientRecord{ID: "p-1"}, err: tt.svcErr}
			h := &PatientHandler{Patients: svc}

			req := httptest.NewRequest("POST", "/api/patients", bytes.NewBufferString(tt.body))
			req = req.WithContext(middleware.WithActor(req.Context(), models.Actor{Username: "receptionist1", Role: models.RoleReceptionist}))
			rec := httptest.NewRecorder()
			h.Create(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("status = %d; want %d", rec.Code, tt.expectedCode)
			}
			if tt.expectedCode == http.StatusCreated {
				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp["id"] != "p-1" {
					t.Errorf("id = %q", resp["id"])
				}
			}
		})
	}
}

func TestPatientHandler_List_AllFlag(t *testing.T) {
	svc := &fakePatientService{views: []models.RecordView{}}
	h := &PatientHandler{Patients: svc}

	req := httptest.NewRequest("GET", "/api/patients?all=true", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), models.Actor{Username: "admin", Role: models.RoleAdmin}))
	h.List(httptest.NewRecorder(), req)

	if !svc.lastAll {
		t.Error("?all=true not passed through")
	}
}

func TestPatientHandler_Decrypt_ErrorMapping(t *testing.T) {
	tests := []struct {
		err          error
		expectedCode int
	}{
		{models.ErrAuthorizationDenied, http.StatusForbidden},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrDecryptionFailed, http.StatusUnprocessableEntity},
		{nil, http.StatusOK},
	}

	for _, tt := range tests {
		svc := &fakePatientService{plaintext: "Flu", err: tt.err}
		h := &PatientHandler{Patients: svc}

		r := chi.NewRouter()
		r.Get("/api/patients/{id}/diagnosis", h.Decrypt)

		req := httptest.NewRequest("GET", "/api/patients/p-1/diagnosis", nil)
		req = req.WithContext(middleware.WithActor(req.Context(), models.Actor{Username: "admin", Role: models.RoleAdmin}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != tt.expectedCode {
			t.Errorf("err %v: status = %d; want %d", tt.err, rec.Code, tt.expectedCode)
		}
	}
}

func TestPatientHandler_Anonymize_Conflict(t *testing.T) {
	svc := &fakePatientService{err: models.ErrAlreadyAnonymized}
	h := &PatientHandler{Patients: svc}

	r := chi.NewRouter()
	r.Post("/api/patients/{id}/anonymize", h.Anonymize)

	req := httptest.NewRequest("POST", "/api/patients/p-1/anonymize", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), models.Actor{Username: "admin", Role: models.RoleAdmin}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusConflict)
	}
}

func TestPatientHandler_Export(t *testing.T) {
	svc := &fakePatientService{csv: []byte("id,name\n")}
	h := &PatientHandler{Patients: svc}

	req := httptest.NewRequest("GET", "/api/patients/export", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), models.Actor{Username: "admin", Role: models.RoleAdmin}))
	rec := httptest.NewRecorder()
	h.Export(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "id,name") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
