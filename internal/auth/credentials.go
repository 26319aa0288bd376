// Package auth verifies admin credentials and issues admin session tokens.
// The original dashboard compared the password against a hard-coded string;
// verification is delegated to an interface here so the handler never sees
// the secret material.
package auth

import "golang.org/x/crypto/bcrypt"

// CredentialVerifier checks a submitted admin password.
type CredentialVerifier interface {
	Verify(password string) bool
}

// BcryptVerifier verifies passwords against a configured bcrypt hash.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier creates a verifier for the given bcrypt hash.
func NewBcryptVerifier(hash string) *BcryptVerifier {
	return &BcryptVerifier{hash: []byte(hash)}
}

// Verify reports whether password matches the configured hash.
func (v *BcryptVerifier) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(password)) == nil
}

// HashPassword hashes a password for storage in configuration. Used by
// operators when rotating the admin credential.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
