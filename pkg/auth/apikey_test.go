package auth

import (
	"errors"
	"testing"
)

func TestAPIKeyVerifier(t *testing.T) {
	hash1, err := HashAPIKey("scl_live_alpha")
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}
	hash2, err := HashAPIKey("scl_live_beta")
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}

	v := NewAPIKeyVerifier([]string{hash1, hash2})
	if !v.Enabled() {
		t.Fatal("verifier with hashes should be enabled")
	}

	if err := v.Verify("scl_live_alpha"); err != nil {
		t.Errorf("first key rejected: %v", err)
	}
	if err := v.Verify("scl_live_beta"); err != nil {
		t.Errorf("second key rejected: %v", err)
	}
	if err := v.Verify("scl_live_gamma"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key: error = %v, want ErrUnknownKey", err)
	}
	if err := v.Verify(""); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("empty key: error = %v, want ErrUnknownKey", err)
	}
}

func TestAPIKeyVerifier_Disabled(t *testing.T) {
	v := NewAPIKeyVerifier(nil)
	if v.Enabled() {
		t.Error("verifier without hashes should be disabled")
	}
	if err := v.Verify("anything"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("error = %v, want ErrUnknownKey", err)
	}

	// Blank entries from config are ignored.
	v = NewAPIKeyVerifier([]string{"", ""})
	if v.Enabled() {
		t.Error("blank hashes should not enable the verifier")
	}
}

func TestHashAPIKey_EmptyKey(t *testing.T) {
	if _, err := HashAPIKey(""); err == nil {
		t.Error("expected error for empty key")
	}
}
