package models

import "errors"

// Sentinel errors for the data-protection core. Callers classify with
// errors.Is; layers wrap with fmt.Errorf("...: %w", err).
var (
	// ErrAuthenticationFailed covers both unknown-user and wrong-password
	// so the response cannot be used for account enumeration.
	ErrAuthenticationFailed = errors.New("invalid username or password")

	// ErrAuthorizationDenied means the acting role lacks permission for
	// the attempted operation. Denials are logged, never swallowed.
	ErrAuthorizationDenied = errors.New("operation not permitted for role")

	// ErrNotFound means the requested record or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyAnonymized means the record has already gone through the
	// one-way anonymization transition.
	ErrAlreadyAnonymized = errors.New("record already anonymized")

	// ErrDecryptionFailed means ciphertext was malformed, truncated, or
	// produced under a different key. Distinct from an absent value.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrStorage is a retryable I/O or transaction failure. The
	// operation was aborted; no partial write or log entry remains.
	ErrStorage = errors.New("storage failure")
)
