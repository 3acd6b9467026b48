// Package service implements the data-protection core: authentication,
// patient record lifecycle, access mediation and audit recording.
package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/healthdesk/medvault/internal/models"
)

// inTx runs fn inside a transaction, rolling back on error. Every
// multi-step mutation (protect-then-store, mutate-then-log) goes
// through here so a crash mid-operation cannot leave a row without its
// audit entry or vice versa.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", models.ErrStorage, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx: %v", models.ErrStorage, err)
	}
	return nil
}
