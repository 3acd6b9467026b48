// Package crypto implements the data-protection codec: authenticated
// encryption of the diagnosis field, deterministic one-way anonymization
// of identity fields, password verifier derivation, and display masking.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
)

// keysetSize is the size of the persisted key blob: a 32-byte AES-256
// key followed by a 32-byte anonymization pepper.
const keysetSize = 64

// Keyset holds the process-wide key material, loaded once at startup.
type Keyset struct {
	// EncryptionKey is the AES-256 key for Protect/Unprotect.
	EncryptionKey [32]byte
	// Pepper keys the deterministic anonymization digest.
	Pepper [32]byte
}

// LoadOrCreateKeyset reads the key blob at path, generating and
// persisting a fresh one on first run. Losing the file makes all
// existing ciphertext permanently unrecoverable; a missing file is
// treated as a first run, not an error.
func LoadOrCreateKeyset(path string) (*Keyset, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(raw) != keysetSize {
			return nil, fmt.Errorf("keyset %s: expected %d bytes, got %d", path, keysetSize, len(raw))
		}
	case errors.Is(err, os.ErrNotExist):
		raw = make([]byte, keysetSize)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("generate keyset: %w", err)
		}
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			return nil, fmt.Errorf("persist keyset %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("read keyset %s: %w", path, err)
	}

	ks := &Keyset{}
	copy(ks.EncryptionKey[:], raw[:32])
	copy(ks.Pepper[:], raw[32:])
	return ks, nil
}
