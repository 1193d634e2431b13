package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	key := make([]byte, KeyLen)
	_, _ = rand.Read(key)

	sealed, err := Seal([]byte("eyJhbGciOiJIUzI1NiJ9.e30.sig"), key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "eyJhbGci")

	plain, err := Open(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.e30.sig", string(plain))

	// Одинаковый plaintext дает разный ciphertext из-за случайного nonce
	again, err := Seal([]byte("eyJhbGciOiJIUzI1NiJ9.e30.sig"), key)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)
}

func TestSeal_Errors(t *testing.T) {
	tests := []struct {
		name      string
		errMsg    string
		plaintext []byte
		key       []byte
	}{
		{name: "empty plaintext", plaintext: nil, key: make([]byte, KeyLen), errMsg: "plaintext cannot be empty"},
		{name: "short key", plaintext: []byte("x"), key: make([]byte, 16), errMsg: "encryption key must be 32 bytes"},
		{name: "long key", plaintext: []byte("x"), key: make([]byte, 64), errMsg: "encryption key must be 32 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Seal(tt.plaintext, tt.key)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	key := make([]byte, KeyLen)
	_, _ = rand.Read(key)
	otherKey := make([]byte, KeyLen)
	_, _ = rand.Read(otherKey)

	sealed, err := Seal([]byte("secret"), key)
	require.NoError(t, err)

	_, err = Open(sealed, otherKey)
	assert.ErrorContains(t, err, "authentication failed")

	_, err = Open("not base64!!", key)
	assert.ErrorContains(t, err, "failed to decode base64")

	_, err = Open(base64.StdEncoding.EncodeToString([]byte("short")), key)
	assert.ErrorContains(t, err, "too short")
}

func TestDeriveStorageKey(t *testing.T) {
	salt, err := GenerateSaltBase64()
	require.NoError(t, err)

	k1, err := DeriveStorageKey("correct horse", salt)
	require.NoError(t, err)
	assert.Len(t, k1, KeyLen)

	k2, err := DeriveStorageKey("correct horse", salt)
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "derivation must be deterministic")

	otherSalt, err := GenerateSaltBase64()
	require.NoError(t, err)
	k3, err := DeriveStorageKey("correct horse", otherSalt)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestDeriveStorageKey_Errors(t *testing.T) {
	salt, err := GenerateSaltBase64()
	require.NoError(t, err)

	_, err = DeriveStorageKey("", salt)
	assert.ErrorContains(t, err, "passphrase cannot be empty")

	_, err = DeriveStorageKey("pass", "%%%")
	assert.ErrorContains(t, err, "failed to decode salt")

	_, err = DeriveStorageKey("pass", base64.StdEncoding.EncodeToString([]byte("tiny")))
	assert.ErrorContains(t, err, "salt must be 16 bytes")
}
