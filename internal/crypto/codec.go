package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/healthdesk/medvault/internal/models"
)

// AnonPrefix marks anonymization tokens so they are visually
// distinguishable from real data.
const AnonPrefix = "ANON_"

// anonDigestLen is the number of hex characters kept from the
// anonymization digest.
const anonDigestLen = 12

// Codec performs all cryptographic operations of the core. It is
// constructed once at startup from the persisted keyset and is safe for
// concurrent use.
type Codec struct {
	aead   cipher.AEAD
	pepper [32]byte
}

// NewCodec builds a Codec from loaded key material.
func NewCodec(ks *Keyset) (*Codec, error) {
	block, err := aes.NewCipher(ks.EncryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return &Codec{aead: aead, pepper: ks.Pepper}, nil
}

// Protect encrypts plaintext with AES-256-GCM under a fresh random
// nonce and returns base64(nonce || ciphertext). Repeated calls on the
// same plaintext yield different ciphertext.
func (c *Codec) Protect(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Unprotect reverses Protect. Malformed, truncated, or foreign-key
// ciphertext yields models.ErrDecryptionFailed, never an empty string.
func (c *Codec) Unprotect(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: not base64: %v", models.ErrDecryptionFailed, err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("%w: ciphertext shorter than nonce", models.ErrDecryptionFailed)
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDecryptionFailed, err)
	}
	return string(plain), nil
}

// Anonymize derives the irreversible replacement token for an identity
// field: a keyed digest of the value under the process pepper, with a
// fixed recognizable prefix. Deterministic, so the same input always
// maps to the same token. Total over all inputs, including "".
func (c *Codec) Anonymize(field string) string {
	mac := hmac.New(sha256.New, c.pepper[:])
	mac.Write([]byte(field))
	digest := hex.EncodeToString(mac.Sum(nil))
	return AnonPrefix + digest[:anonDigestLen]
}
