package auth

import (
	"golang.org/x/crypto/argon2"
)

// Argon2 parameters based on OWASP recommendations
const (
	Memory      = 64 * 1024 // 64 MB
	Iterations  = 3
	Parallelism = 2
	KeyLength   = 32
)

// credentialSalt separates credential keys from any other use of the secret.
var credentialSalt = []byte("inbox-lab/credential-store/v1")

// DeriveCredentialKey turns an operator secret into the key sealing stored
// credentials. The same secret always yields the same key.
func DeriveCredentialKey(secret string) [32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey([]byte(secret), credentialSalt, Iterations, Memory, Parallelism, KeyLength))
	return key
}
