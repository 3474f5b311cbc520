/*
Package auth provides password hashing and access tokens.

PASSWORDS:
  bcrypt at the default cost. bcrypt only reads the first 72 bytes; longer
  inputs are truncated before hashing and checking so both sides agree.

TOKENS:
  HS256 JWTs with sub (user id), iat, exp and a random jti. See token.go.
*/
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const maxPasswordBytes = 72

// ErrInvalidCredentials is returned for a wrong password or unknown user.
var ErrInvalidCredentials = errors.New("incorrect email or password")

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword returns ErrInvalidCredentials when password does not match.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), truncate(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
