package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownKey means the presented API key matches no configured hash.
var ErrUnknownKey = errors.New("unknown api key")

// APIKeyVerifier checks presented keys against bcrypt hashes from
// configuration. Plaintext keys are never stored; operators generate a
// hash with HashAPIKey and put only the hash in the config file.
type APIKeyVerifier struct {
	hashes [][]byte
}

// NewAPIKeyVerifier builds a verifier over the configured hashes.
func NewAPIKeyVerifier(hashes []string) *APIKeyVerifier {
	v := &APIKeyVerifier{hashes: make([][]byte, 0, len(hashes))}
	for _, h := range hashes {
		if h != "" {
			v.hashes = append(v.hashes, []byte(h))
		}
	}
	return v
}

// Enabled reports whether any key hash is configured.
func (v *APIKeyVerifier) Enabled() bool {
	return len(v.hashes) > 0
}

// Verify compares the presented key against every configured hash.
func (v *APIKeyVerifier) Verify(key string) error {
	if key == "" {
		return ErrUnknownKey
	}
	for _, hash := range v.hashes {
		if bcrypt.CompareHashAndPassword(hash, []byte(key)) == nil {
			return nil
		}
	}
	return ErrUnknownKey
}

// HashAPIKey produces a bcrypt hash suitable for the config file.
func HashAPIKey(key string) (string, error) {
	if key == "" {
		return "", ErrUnknownKey
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
