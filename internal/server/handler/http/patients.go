package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/healthdesk/medvault/internal/middleware"
	"github.com/healthdesk/medvault/internal/models"
	"github.com/healthdesk/medvault/internal/service"
)

// PatientService defines the record operations required by the
// handlers.
type PatientService interface {
	Create(ctx context.Context, actor models.Actor, in service.CreatePatientInput) (*models.PatientRecord, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.RecordView, error)
	List(ctx context.Context, actor models.Actor, includeAnonymized bool) ([]models.RecordView, error)
	Update(ctx context.Context, actor models.Actor, id string, fields service.UpdatePatientFields) (*models.PatientRecord, error)
	DecryptDiagnosis(ctx context.Context, actor models.Actor, id string) (string, error)
	Anonymize(ctx context.Context, actor models.Actor, id string) (*models.PatientRecord, error)
	ExportCSV(ctx context.Context, actor models.Actor) ([]byte, error)
}

// PatientHandler handles the /api/patients routes.
type PatientHandler struct {
	Patients PatientService
}

// CreatePatientRequest is the JSON payload of POST /api/patients.
type CreatePatientRequest struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Contact   string `json:"contact"`
	Diagnosis string `json:"diagnosis"`
}

// UpdatePatientRequest is the JSON payload of PUT /api/patients/{id}.
// Absent fields are left unchanged.
type UpdatePatientRequest struct {
	Name      *string `json:"name"`
	Age       *int    `json:"age"`
	Gender    *string `json:"gender"`
	Contact   *string `json:"contact"`
	Diagnosis *string `json:"diagnosis"`
}

// Create handles POST /api/patients.
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	rec, err := h.Patients.Create(r.Context(), actor, service.CreatePatientInput{
		Name:      req.Name,
		Age:       req.Age,
		Gender:    req.Gender,
		Contact:   req.Contact,
		Diagnosis: req.Diagnosis,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": rec.ID})
}

// List handles GET /api/patients. ?all=true includes anonymized
// records.
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	views, err := h.Patients.List(r.Context(), actor, r.URL.Query().Get("all") == "true")
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

// Get handles GET /api/patients/{id}.
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	view, err := h.Patients.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

// Update handles PUT /api/patients/{id}.
func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	_, err := h.Patients.Update(r.Context(), actor, chi.URLParam(r, "id"), service.UpdatePatientFields{
		Name:      req.Name,
		Age:       req.Age,
		Gender:    req.Gender,
		Contact:   req.Contact,
		Diagnosis: req.Diagnosis,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Decrypt handles GET /api/patients/{id}/diagnosis.
func (h *PatientHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	plaintext, err := h.Patients.DecryptDiagnosis(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"diagnosis": plaintext})
}

// Anonymize handles POST /api/patients/{id}/anonymize.
func (h *PatientHandler) Anonymize(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	rec, err := h.Patients.Anonymize(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"id": rec.ID, "anonymized": rec.Anonymized})
}

// Export handles GET /api/patients/export.
func (h *PatientHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	data, err := h.Patients.ExportCSV(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="patients.csv"`)
	_, _ = w.Write(data)
}
