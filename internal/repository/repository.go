// Package repository provides SQLite persistence for users, patient
// records and the audit ledger.
package repository

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql used by repository methods.
// Both *sql.DB and *sql.Tx satisfy it, so mutating methods can run
// inside a caller-owned transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// timeLayout is RFC 3339 with fixed-width nanoseconds, so stored
// timestamps sort lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"
