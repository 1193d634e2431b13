package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id для ключа локального хранилища
const (
	Argon2Time    = 1
	Argon2Memory  = 64 * 1024 // 64MB в KB
	Argon2Threads = 4
	// KeyLen - длина ключа AES-256
	KeyLen = 32
	// SaltSize - размер соли в байтах
	SaltSize = 16
)

// GenerateSaltBase64 генерирует случайную соль и возвращает ее в Base64
func GenerateSaltBase64() (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DeriveStorageKey derives the at-rest encryption key for durable tokens
// from the configured passphrase and the per-database salt.
func DeriveStorageKey(passphrase, saltBase64 string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	return argon2.IDKey([]byte(passphrase), salt, Argon2Time, Argon2Memory, Argon2Threads, KeyLen), nil
}
