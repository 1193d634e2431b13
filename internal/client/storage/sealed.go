package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/zendash/internal/crypto"
)

// Sealed шифрует токены перед записью в нижележащее хранилище и
// расшифровывает их при чтении. Остальные ключи проходят как есть.
type Sealed struct {
	KeyValueStorage
	key []byte
}

// Compile-time check that Sealed implements KeyValueStorage
var _ KeyValueStorage = (*Sealed)(nil)

// NewSealed wraps inner with at-rest encryption of token values.
// The salt is created on first use and kept under KeyStorageSalt.
func NewSealed(ctx context.Context, inner KeyValueStorage, passphrase string) (*Sealed, error) {
	salt, err := inner.Get(ctx, KeyStorageSalt)
	if errors.Is(err, ErrKeyNotFound) {
		salt, err = crypto.GenerateSaltBase64()
		if err != nil {
			return nil, err
		}
		if err := inner.Set(ctx, KeyStorageSalt, salt); err != nil {
			return nil, fmt.Errorf("failed to save storage salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read storage salt: %w", err)
	}

	key, err := crypto.DeriveStorageKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive storage key: %w", err)
	}

	return &Sealed{KeyValueStorage: inner, key: key}, nil
}

func sealedKey(key string) bool {
	return key == KeyAccessToken || key == KeyRefreshToken
}

// Get расшифровывает значение токена
func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	v, err := s.KeyValueStorage.Get(ctx, key)
	if err != nil || !sealedKey(key) || v == "" {
		return v, err
	}
	plain, err := crypto.Open(v, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", key, err)
	}
	return string(plain), nil
}

// Set шифрует значение токена
func (s *Sealed) Set(ctx context.Context, key, value string) error {
	if !sealedKey(key) || value == "" {
		return s.KeyValueStorage.Set(ctx, key, value)
	}
	v, err := crypto.Seal([]byte(value), s.key)
	if err != nil {
		return fmt.Errorf("failed to seal %s: %w", key, err)
	}
	return s.KeyValueStorage.Set(ctx, key, v)
}
