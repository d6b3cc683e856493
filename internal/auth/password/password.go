// Package password provides password hashing helpers for the auth module.
package password

import "golang.org/x/crypto/bcrypt"

// Hash produces a bcrypt hash of the given plaintext password.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether the plaintext password matches the stored hash.
func Compare(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
