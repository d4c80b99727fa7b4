package application

import (
	"errors"
	"strings"
	"testing"
)

var testParams = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestAPIKeyVerifier_RoundTrip(t *testing.T) {
	t.Parallel()

	encoded, err := HashAPIKey("s3cret", testParams)
	if err != nil {
		t.Fatalf("HashAPIKey returned error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	verifier, err := NewAPIKeyVerifier(encoded)
	if err != nil {
		t.Fatalf("NewAPIKeyVerifier returned error: %v", err)
	}
	if err := verifier.Verify("s3cret"); err != nil {
		t.Fatalf("expected key to verify, got %v", err)
	}
	if err := verifier.Verify("wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := verifier.Verify(""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for empty key, got %v", err)
	}
}

func TestHashAPIKey_SaltsEachHash(t *testing.T) {
	t.Parallel()

	a, _ := HashAPIKey("same", testParams)
	b, _ := HashAPIKey("same", testParams)
	if a == b {
		t.Fatalf("expected distinct salts")
	}
	if _, err := HashAPIKey("", testParams); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestNewAPIKeyVerifier_RejectsMalformedHashes(t *testing.T) {
	t.Parallel()

	for _, encoded := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=x$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!$aGFzaA",
	} {
		if _, err := NewAPIKeyVerifier(encoded); !errors.Is(err, ErrInvalidAPIKeyHash) {
			t.Fatalf("expected ErrInvalidAPIKeyHash for %q, got %v", encoded, err)
		}
	}

	if _, err := NewAPIKeyVerifier("$argon2id$v=16$m=1,t=1,p=1$c2FsdA$aGFzaA"); !errors.Is(err, ErrIncompatibleHashVersion) {
		t.Fatalf("expected ErrIncompatibleHashVersion, got %v", err)
	}
}
