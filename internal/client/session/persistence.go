package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/zendash/internal/client/cookies"
	"github.com/iudanet/zendash/internal/client/storage"
	"github.com/iudanet/zendash/pkg/api"
)

// Cookie lifetimes in days.
const (
	AccessTokenCookieDays  = 1
	RefreshTokenCookieDays = 7
	SessionIDCookieDays    = 7
)

// Snapshot is everything that survives a restart.
// Only User, IsAuthenticated and SessionID go into the auth-storage JSON;
// tokens live under their own durable keys.
type Snapshot struct {
	User            *api.User `json:"user"`
	AccessToken     string    `json:"-"`
	RefreshToken    string    `json:"-"`
	SessionID       string    `json:"sessionId"`
	IsAuthenticated bool      `json:"isAuthenticated"`
}

//go:generate moq -out persistence_mock.go . Persistence

// Persistence is the only write path for session state. Implementations fan
// out to every backend that needs a copy, so the copies cannot diverge.
type Persistence interface {
	// Save writes the snapshot to durable storage and mirrors tokens to cookies
	Save(ctx context.Context, snap Snapshot) error

	// Load reads the durable copy. Missing keys yield empty fields, not errors
	Load(ctx context.Context) (Snapshot, error)

	// Clear removes every durable key and every cookie
	Clear(ctx context.Context) error

	// MirrorCookies rewrites cookies for the non-empty tokens of snap
	MirrorCookies(snap Snapshot)

	// DropCookies deletes the cookie mirror, leaving durable storage intact
	DropCookies()
}

// StoragePersistence сохраняет сессию в durable key-value storage и
// зеркалирует токены в cookie jar API клиента
type StoragePersistence struct {
	kv      storage.KeyValueStorage
	cookies *cookies.Bridge
	logger  *slog.Logger
}

// Compile-time check that StoragePersistence implements Persistence
var _ Persistence = (*StoragePersistence)(nil)

// NewStoragePersistence creates persistence over kv and the cookie bridge.
// bridge may be nil, in which case the cookie mirror is skipped.
func NewStoragePersistence(kv storage.KeyValueStorage, bridge *cookies.Bridge, logger *slog.Logger) *StoragePersistence {
	return &StoragePersistence{
		kv:      kv,
		cookies: bridge,
		logger:  logger,
	}
}

// Save сохраняет токены, session id и JSON snapshot, затем обновляет cookie.
// Ключи с пустым значением удаляются из storage и cookie.
func (p *StoragePersistence) Save(ctx context.Context, snap Snapshot) error {
	writes := []struct {
		key   string
		value string
	}{
		{storage.KeyAccessToken, snap.AccessToken},
		{storage.KeyRefreshToken, snap.RefreshToken},
		{storage.KeySessionID, snap.SessionID},
	}
	for _, w := range writes {
		// пустое значение удаляет ключ
		if w.value == "" {
			p.cookies.Delete(w.key)
			if err := p.kv.Delete(ctx, w.key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", w.key, err)
			}
			continue
		}
		if err := p.kv.Set(ctx, w.key, w.value); err != nil {
			return fmt.Errorf("failed to save %s: %w", w.key, err)
		}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal auth snapshot: %w", err)
	}
	if err := p.kv.Set(ctx, storage.KeyAuthSnapshot, string(data)); err != nil {
		return fmt.Errorf("failed to save auth snapshot: %w", err)
	}

	p.MirrorCookies(snap)
	return nil
}

// Load читает durable копию сессии
func (p *StoragePersistence) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	raw, err := p.get(ctx, storage.KeyAuthSnapshot)
	if err != nil {
		return Snapshot{}, err
	}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			// Битый snapshot не должен блокировать вход: токены важнее
			p.logger.Warn("ignoring corrupted auth snapshot", "error", err)
			snap = Snapshot{}
		}
	}

	if snap.AccessToken, err = p.get(ctx, storage.KeyAccessToken); err != nil {
		return Snapshot{}, err
	}
	if snap.RefreshToken, err = p.get(ctx, storage.KeyRefreshToken); err != nil {
		return Snapshot{}, err
	}
	sessionID, err := p.get(ctx, storage.KeySessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if sessionID != "" {
		snap.SessionID = sessionID
	}

	return snap, nil
}

// Clear удаляет все durable ключи и все cookie
func (p *StoragePersistence) Clear(ctx context.Context) error {
	// Cookie удаляем в любом случае, даже если storage вернул ошибку
	p.DropCookies()

	var errs []error
	for _, key := range []string{
		storage.KeyAccessToken,
		storage.KeyRefreshToken,
		storage.KeySessionID,
		storage.KeyAuthSnapshot,
	} {
		if err := p.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// MirrorCookies writes the cookie copy of the non-empty values in snap
func (p *StoragePersistence) MirrorCookies(snap Snapshot) {
	if snap.AccessToken != "" {
		p.cookies.Set(storage.KeyAccessToken, snap.AccessToken, AccessTokenCookieDays)
	}
	if snap.RefreshToken != "" {
		p.cookies.Set(storage.KeyRefreshToken, snap.RefreshToken, RefreshTokenCookieDays)
	}
	if snap.SessionID != "" {
		p.cookies.Set(storage.KeySessionID, snap.SessionID, SessionIDCookieDays)
	}
}

// DropCookies deletes all three cookies
func (p *StoragePersistence) DropCookies() {
	p.cookies.Delete(storage.KeyAccessToken)
	p.cookies.Delete(storage.KeyRefreshToken)
	p.cookies.Delete(storage.KeySessionID)
}

func (p *StoragePersistence) get(ctx context.Context, key string) (string, error) {
	v, err := p.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}
