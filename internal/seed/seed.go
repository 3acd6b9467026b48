// Package seed provisions the default accounts and sample patients.
// Everything goes through the regular service entry points, so seeded
// data is hashed, encrypted and audit-logged exactly like runtime
// writes.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/healthdesk/medvault/internal/models"
	"github.com/healthdesk/medvault/internal/service"
)

// system is the actor recorded for provisioning done at startup.
var system = models.Actor{Username: "system", Role: models.RoleAdmin}

var defaultUsers = []struct {
	username string
	password string
	role     models.Role
}{
	{"admin", "admin123", models.RoleAdmin},
	{"doctor1", "doctor123", models.RoleDoctor},
	{"receptionist1", "recept123", models.RoleReceptionist},
}

var samplePatients = []service.CreatePatientInput{
	{Name: "John Doe", Age: 45, Gender: "Male", Contact: "+1234567890", Diagnosis: "Hypertension"},
	{Name: "Jane Roe", Age: 32, Gender: "Female", Contact: "jane.roe@example.com", Diagnosis: "Type 2 Diabetes"},
	{Name: "Sam Lee", Age: 58, Gender: "Male", Contact: "+1987654321", Diagnosis: "Asthma"},
}

// Lookup resolves an existing account so seeding stays idempotent.
type Lookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Run provisions the default accounts and, when withPatients is set,
// the sample records. Existing accounts are left alone.
func Run(ctx context.Context, auth *service.AuthService, patients *service.PatientService, lookup Lookup, withPatients bool, log *zap.Logger) error {
	seededUsers := 0
	for _, u := range defaultUsers {
		_, err := lookup.GetByUsername(ctx, u.username)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, models.ErrNotFound):
			return fmt.Errorf("check user %s: %w", u.username, err)
		}
		if _, err := auth.CreateUser(ctx, system, u.username, u.password, u.role); err != nil {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
		seededUsers++
	}

	seededPatients := 0
	if withPatients && seededUsers > 0 {
		for _, p := range samplePatients {
			if _, err := patients.Create(ctx, system, p); err != nil {
				return fmt.Errorf("seed patient: %w", err)
			}
			seededPatients++
		}
	}

	log.Info("seeding complete",
		zap.Int("users", seededUsers),
		zap.Int("patients", seededPatients))
	return nil
}
