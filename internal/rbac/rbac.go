// Package rbac centralizes role-based access decisions in a single
// table-driven mediator. Enforcement happens here on every read and
// write path; UI-level hiding of controls is a usability aid only.
package rbac

import "github.com/healthdesk/medvault/internal/models"

// Operation is an access-controlled operation of the core. The set is
// closed and matches the policy table exactly.
type Operation string

const (
	OpViewPatientList  Operation = "ViewPatientList"
	OpAddPatient       Operation = "AddPatient"
	OpEditPatient      Operation = "EditPatient"
	OpDecryptDiagnosis Operation = "DecryptDiagnosis"
	OpAnonymizePatient Operation = "AnonymizePatient"
	OpViewAuditLog     Operation = "ViewAuditLog"
	OpExportData       Operation = "ExportData"
)

// Field names masking decisions refer to.
type Field string

const (
	FieldName      Field = "name"
	FieldContact   Field = "contact"
	FieldDiagnosis Field = "diagnosis"
)

// DecisionKind classifies an access decision.
type DecisionKind int

const (
	// Deny refuses the operation outright.
	Deny DecisionKind = iota
	// Allow grants the operation with no field restrictions.
	Allow
	// AllowWithMasking grants the operation but requires the listed
	// fields to be masked on display or excluded from edits.
	AllowWithMasking
)

// Decision is the outcome of Authorize.
type Decision struct {
	Kind DecisionKind
	// Masked lists the fields that must be masked (on reads) or
	// rejected (on edits). Empty unless Kind is AllowWithMasking.
	Masked []Field
}

// Allowed reports whether the decision permits the operation at all.
func (d Decision) Allowed() bool { return d.Kind != Deny }

// Masks reports whether the decision restricts the given field.
func (d Decision) Masks(f Field) bool {
	for _, m := range d.Masked {
		if m == f {
			return true
		}
	}
	return false
}

// policy is the closed access table. Roles or operations absent from
// the table are denied.
var policy = map[models.Role]map[Operation]Decision{
	models.RoleAdmin: {
		OpViewPatientList:  {Kind: Allow},
		OpAddPatient:       {Kind: Allow},
		OpEditPatient:      {Kind: Allow},
		OpDecryptDiagnosis: {Kind: Allow},
		OpAnonymizePatient: {Kind: Allow},
		OpViewAuditLog:     {Kind: Allow},
		OpExportData:       {Kind: Allow},
	},
	models.RoleDoctor: {
		OpViewPatientList: {
			Kind:   AllowWithMasking,
			Masked: []Field{FieldName, FieldContact, FieldDiagnosis},
		},
	},
	models.RoleReceptionist: {
		OpViewPatientList: {Kind: Allow},
		OpAddPatient:      {Kind: Allow},
		OpEditPatient: {
			Kind:   AllowWithMasking,
			Masked: []Field{FieldDiagnosis},
		},
	},
}

// Authorize returns the tabled decision for the role and operation. It
// is a pure function over the policy table and performs no I/O.
func Authorize(role models.Role, op Operation) Decision {
	ops, ok := policy[role]
	if !ok {
		return Decision{Kind: Deny}
	}
	d, ok := ops[op]
	if !ok {
		return Decision{Kind: Deny}
	}
	return d
}
