// Package cryptox hashes and verifies user PINs.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize = 16
	keySize  = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4

	scheme = "argon2id"
)

var ErrMalformedHash = errors.New("malformed pin hash")

// DeriveKey stretches pin with salt using argon2id.
func DeriveKey(pin []byte, salt []byte) []byte {
	return argon2.IDKey(pin, salt, argonTime, argonMemory, argonThreads, keySize)
}

// HashPin returns "argon2id$<salt hex>$<key hex>" for pin.
func HashPin(pin string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	key := DeriveKey([]byte(pin), salt)
	return strings.Join([]string{scheme, hex.EncodeToString(salt), hex.EncodeToString(key)}, "$"), nil
}

// VerifyPin reports whether pin matches an encoded hash produced by HashPin.
// The key comparison runs in constant time.
func VerifyPin(encoded, pin string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != scheme {
		return false, ErrMalformedHash
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) != keySize {
		return false, ErrMalformedHash
	}

	got := DeriveKey([]byte(pin), salt)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}
