package lendingtest

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Memory is kept small so that tests which log in stay fast.
const (
	argonTime    = 1
	argonMemory  = 8 * 1024
	argonThreads = 2
	argonKeyLen  = 32
)

type credential struct {
	salt []byte
	hash []byte
}

func hashPassword(password string) (credential, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return credential{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	return credential{
		salt: salt,
		hash: argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen),
	}, nil
}

func (c credential) matches(password string) bool {
	candidate := argon2.IDKey([]byte(password), c.salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(candidate, c.hash) == 1
}
