package rbac

import (
	"time"

	"github.com/healthdesk/medvault/internal/crypto"
	"github.com/healthdesk/medvault/internal/models"
)

// DiagnosisMarker is what a masked diagnosis renders as in list views.
// Decryption is a separate, separately-authorized operation.
const DiagnosisMarker = "ENCRYPTED"

// ApplyMasking prepares a record for display under the given decision.
// Stored values are never modified; masking is recomputed on every
// read. The diagnosis is never decrypted here: an unmasked view shows
// the ciphertext, a masked view shows the literal marker.
func ApplyMasking(d Decision, rec models.PatientRecord) models.RecordView {
	v := models.RecordView{
		ID:         rec.ID,
		Name:       rec.Name,
		Age:        rec.Age,
		Gender:     rec.Gender,
		Contact:    rec.Contact,
		Diagnosis:  rec.Diagnosis,
		AdmittedAt: rec.AdmittedAt.UTC().Format(time.RFC3339),
		Anonymized: rec.Anonymized,
	}
	if d.Masks(FieldName) {
		v.Name = crypto.MaskName(rec.Name)
	}
	if d.Masks(FieldContact) {
		v.Contact = crypto.MaskContact(rec.Contact)
	}
	if d.Masks(FieldDiagnosis) {
		v.Diagnosis = DiagnosisMarker
	}
	return v
}
