package storage

import (
	"context"
)

// Well-known keys of the durable client storage.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeySessionID    = "session_id"
	// KeyAuthSnapshot holds the JSON snapshot {user, isAuthenticated, sessionId}
	KeyAuthSnapshot = "auth-storage"
	// KeyStorageSalt holds the salt used to derive the at-rest encryption key
	KeyStorageSalt = "storage_salt"
)

//go:generate moq -out kv_mock.go . KeyValueStorage

// KeyValueStorage defines the durable key-value storage of the client.
// Values are stored as-is and never expire; this is the source of truth
// for the session on restart.
type KeyValueStorage interface {
	// Get returns the value for key.
	// Returns ErrKeyNotFound if the key doesn't exist
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying database
	Close() error
}
