// Package models defines the core data structures for users, patient
// records and audit log entries.
package models

import "time"

// Role identifies the access level of a user. The set is closed.
type Role string

const (
	// RoleAdmin has full access: decrypt, anonymize, audit, export.
	RoleAdmin Role = "admin"
	// RoleDoctor may view the patient list with identity fields masked.
	RoleDoctor Role = "doctor"
	// RoleReceptionist may add patients and edit non-diagnosis fields.
	RoleReceptionist Role = "receptionist"
)

// ValidRole reports whether r belongs to the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleReceptionist:
		return true
	}
	return false
}

// User represents a provisioned account. The store never holds a
// password, only the argon2id verifier string.
type User struct {
	// ID is the unique identifier for the user.
	ID int64
	// Username is the unique login name.
	Username string
	// PasswordHash is the PHC-encoded verifier of the user's password.
	PasswordHash string
	// Role is the user's access level.
	Role Role
	// Disabled marks a soft-disabled account. Users are never deleted.
	Disabled bool
	// CreatedAt is the provisioning timestamp (UTC).
	CreatedAt time.Time
}

// PatientRecord is a stored patient row. Diagnosis exists only as
// ciphertext; there is no plaintext diagnosis column in the schema.
type PatientRecord struct {
	// ID is the stable unique identifier of the record.
	ID string
	// Name is the patient name, or an anonymization token once the
	// record has been anonymized.
	Name string
	// Age in years; zeroed on anonymization.
	Age int
	// Gender as free text; replaced by a token on anonymization.
	Gender string
	// Contact is a phone number or email address; replaced by a token
	// on anonymization.
	Contact string
	// Diagnosis is the encrypted diagnosis (base64 nonce||ciphertext).
	Diagnosis string
	// AdmittedAt is the admission timestamp (UTC).
	AdmittedAt time.Time
	// Anonymized reports whether the identity fields have been
	// irreversibly replaced. The transition is one-way.
	Anonymized bool
}

// RecordView is a patient record prepared for display, with the acting
// role's masking already applied. Masking never changes stored data.
type RecordView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Contact    string `json:"contact"`
	Diagnosis  string `json:"diagnosis"`
	AdmittedAt string `json:"admitted_at"`
	Anonymized bool   `json:"anonymized"`
}

// Action is an audit log action kind. The set is closed; every
// security-relevant operation maps to exactly one kind.
type Action string

const (
	ActionLogin            Action = "LOGIN"
	ActionLoginFailed      Action = "LOGIN_FAILED"
	ActionLogout           Action = "LOGOUT"
	ActionAddPatient       Action = "ADD_PATIENT"
	ActionEditPatient      Action = "EDIT_PATIENT"
	ActionViewPatientList  Action = "VIEW_PATIENT_LIST"
	ActionViewDecrypted    Action = "VIEW_DECRYPTED"
	ActionAnonymizePatient Action = "ANONYMIZE_PATIENT"
	ActionExportData       Action = "EXPORT_DATA"
	ActionViewAuditLog     Action = "VIEW_AUDIT_LOG"
	ActionAccessDenied     Action = "ACCESS_DENIED"
	ActionCreateUser       Action = "CREATE_USER"
	ActionDisableUser      Action = "DISABLE_USER"
)

// LogEntry is a single append-only audit ledger row. Entries are never
// updated or deleted, under any role.
type LogEntry struct {
	// ID is assigned by the store and breaks same-timestamp ties.
	ID int64 `json:"id"`
	// ActorID is the acting user's ID, or 0 for failed logins where no
	// account was resolved.
	ActorID int64 `json:"actor_id"`
	// Username is the acting user's login name as given at the time.
	Username string `json:"username"`
	// Role is the role held at the time of the action, captured then,
	// never re-derived.
	Role Role `json:"role"`
	// Action is the action kind.
	Action Action `json:"action"`
	// At is the UTC timestamp of the action.
	At time.Time `json:"at"`
	// Detail is free text. It must never carry a field that policy
	// requires masked, in particular decrypted diagnosis text.
	Detail string `json:"detail"`
}

// Actor identifies who is performing an operation against the core.
// Role is the role held by the session, not looked up per call.
type Actor struct {
	ID       int64
	Username string
	Role     Role
}
