package crypto

import (
	"strings"
	"testing"
)

func TestHashPassword_VerifyRoundtrip(t *testing.T) {
	verifier, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(verifier, "$argon2id$") {
		t.Errorf("verifier = %q; want argon2id PHC string", verifier)
	}
	if strings.Contains(verifier, "admin123") {
		t.Errorf("verifier embeds the password")
	}
	if !VerifyPassword("admin123", verifier) {
		t.Errorf("correct password rejected")
	}
	if VerifyPassword("wrongpass", verifier) {
		t.Errorf("wrong password accepted")
	}
}

func TestHashPassword_SaltedPerUser(t *testing.T) {
	a, err := HashPassword("samepass")
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashPassword("samepass")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("two verifiers of the same password are identical; salt missing")
	}
	if !VerifyPassword("samepass", a) || !VerifyPassword("samepass", b) {
		t.Errorf("verification failed for salted verifiers")
	}
}

func TestVerifyPassword_MalformedVerifier(t *testing.T) {
	for _, verifier := range []string{
		"",
		"plaintext",
		"$argon2id$broken",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
	} {
		if VerifyPassword("anything", verifier) {
			t.Errorf("malformed verifier %q accepted", verifier)
		}
	}
}
