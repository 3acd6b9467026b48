package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/healthdesk/medvault/internal/models"
)

func testCodec(t *testing.T, fill byte) *Codec {
	t.Helper()
	ks := &Keyset{}
	for i := range ks.EncryptionKey {
		ks.EncryptionKey[i] = fill
	}
	for i := range ks.Pepper {
		ks.Pepper[i] = fill + 1
	}
	c, err := NewCodec(ks)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestProtectUnprotect_Roundtrip(t *testing.T) {
	c := testCodec(t, 0x11)

	for _, plaintext := range []string{"Flu", "Hypertension, Type 2 Diabetes", "", "üñïçödé"} {
		ct, err := c.Protect(plaintext)
		if err != nil {
			t.Fatalf("Protect(%q): %v", plaintext, err)
		}
		if ct == plaintext && plaintext != "" {
			t.Errorf("ciphertext equals plaintext %q", plaintext)
		}
		got, err := c.Unprotect(ct)
		if err != nil {
			t.Fatalf("Unprotect: %v", err)
		}
		if got != plaintext {
			t.Errorf("roundtrip = %q; want %q", got, plaintext)
		}
	}
}

func TestProtect_NonDeterministic(t *testing.T) {
	c := testCodec(t, 0x22)

	first, err := c.Protect("Flu")
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}
	second, err := c.Protect("Flu")
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}
	if first == second {
		t.Errorf("two Protect calls yielded identical ciphertext")
	}
}

func TestUnprotect_CorruptCiphertext(t *testing.T) {
	c := testCodec(t, 0x33)

	ct, err := c.Protect("Flu")
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(ct)
	raw[len(raw)-1] ^= 0xFF
	corrupted := base64.StdEncoding.EncodeToString(raw)

	if _, err := c.Unprotect(corrupted); !errors.Is(err, models.ErrDecryptionFailed) {
		t.Errorf("Unprotect(corrupted) error = %v; want ErrDecryptionFailed", err)
	}
}

func TestUnprotect_Malformed(t *testing.T) {
	c := testCodec(t, 0x44)

	for _, ct := range []string{"not base64 at all!!!", "", base64.StdEncoding.EncodeToString([]byte("short"))} {
		if _, err := c.Unprotect(ct); !errors.Is(err, models.ErrDecryptionFailed) {
			t.Errorf("Unprotect(%q) error = %v; want ErrDecryptionFailed", ct, err)
		}
	}
}

func TestUnprotect_ForeignKey(t *testing.T) {
	ct, err := testCodec(t, 0x55).Protect("Flu")
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}
	if _, err := testCodec(t, 0x66).Unprotect(ct); !errors.Is(err, models.ErrDecryptionFailed) {
		t.Errorf("Unprotect under different key error = %v; want ErrDecryptionFailed", err)
	}
}

func TestAnonymize_Deterministic(t *testing.T) {
	c := testCodec(t, 0x77)

	for _, input := range []string{"John Doe", "+1234567890", "Male", ""} {
		first := c.Anonymize(input)
		second := c.Anonymize(input)
		if first != second {
			t.Errorf("Anonymize(%q) not deterministic: %q != %q", input, first, second)
		}
		if first == input {
			t.Errorf("Anonymize(%q) returned its input", input)
		}
		if !strings.HasPrefix(first, AnonPrefix) {
			t.Errorf("Anonymize(%q) = %q; want %q prefix", input, first, AnonPrefix)
		}
	}
}

func TestAnonymize_KeyedByPepper(t *testing.T) {
	a := testCodec(t, 0x01).Anonymize("John Doe")
	b := testCodec(t, 0x02).Anonymize("John Doe")
	if a == b {
		t.Errorf("tokens under different peppers are equal: %q", a)
	}
}

func TestAnonymize_DistinctInputs(t *testing.T) {
	c := testCodec(t, 0x88)
	if c.Anonymize("John Doe") == c.Anonymize("Jane Roe") {
		t.Errorf("distinct inputs produced the same token")
	}
}
