// Package session holds the client's authentication state and keeps the
// durable and cookie copies of it in step.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/zendash/pkg/api"
)

// Session — текущее состояние аутентификации клиента
type Session struct {
	User            *api.User
	AccessToken     string
	RefreshToken    string
	SessionID       string
	IsAuthenticated bool
	IsLoading       bool
}

// Store владеет Session. Создается явно в main и передается зависимым
// компонентам; все мутации идут через Persistence.
type Store struct {
	persist Persistence
	logger  *slog.Logger
	now     func() time.Time
	state   Session
	// epoch увеличивается при каждом Logout, чтобы отбрасывать
	// ответы /auth/me, пришедшие после выхода
	epoch uint64
	mu    sync.RWMutex
}

// NewStore creates an empty, unauthenticated store
func NewStore(persist Persistence, logger *slog.Logger) *Store {
	return &Store{
		persist: persist,
		logger:  logger,
		now:     time.Now,
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Epoch returns the current logout generation
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// SetUser заменяет пользователя; IsAuthenticated = user != nil,
// даже если токены на месте
func (s *Store) SetUser(ctx context.Context, user *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setUserLocked(ctx, user)
}

// SetUserIfCurrent sets the user only if no Logout happened since epoch was
// read. It reports whether the user was applied.
func (s *Store) SetUserIfCurrent(ctx context.Context, epoch uint64, user *api.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		s.logger.Debug("discarding stale user response", "epoch", epoch, "current", s.epoch)
		return false, nil
	}
	return true, s.setUserLocked(ctx, user)
}

func (s *Store) setUserLocked(ctx context.Context, user *api.User) error {
	s.state.User = user
	s.state.IsAuthenticated = user != nil

	if err := s.persist.Save(ctx, s.snapshotLocked()); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// SetTokens сохраняет токены, при первом вызове генерирует session id.
// IsAuthenticated становится true сразу, до загрузки профиля.
func (s *Store) SetTokens(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" {
		return fmt.Errorf("access token cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.AccessToken = accessToken
	s.state.RefreshToken = refreshToken
	if s.state.SessionID == "" {
		s.state.SessionID = newSessionID(s.now())
		s.logger.Debug("new session started", "session_id", s.state.SessionID)
	}
	s.state.IsAuthenticated = true

	if err := s.persist.Save(ctx, s.snapshotLocked()); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	return nil
}

// Logout очищает durable storage и cookie, сбрасывает состояние.
// Состояние в памяти сбрасывается даже при ошибке storage.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loading := s.state.IsLoading
	s.state = Session{IsLoading: loading}
	s.epoch++

	if err := s.persist.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session storage: %w", err)
	}
	return nil
}

// SetLoading sets the loading flag only
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = loading
}

// InitializeFromStorage восстанавливает сессию из durable storage.
// Если оба токена есть, заново зеркалирует их в cookie (обновляя срок)
// и помечает сессию аутентифицированной. Валидность токена не проверяется.
func (s *Store) InitializeFromStorage(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.persist.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if snap.AccessToken == "" || snap.RefreshToken == "" {
		s.persist.DropCookies()
		return nil
	}

	s.persist.MirrorCookies(snap)

	s.state.AccessToken = snap.AccessToken
	s.state.RefreshToken = snap.RefreshToken
	if snap.SessionID != "" {
		s.state.SessionID = snap.SessionID
	}
	if s.state.User == nil && snap.User != nil {
		s.state.User = snap.User
	}
	s.state.IsAuthenticated = true

	return nil
}

// StoredAccessToken reads the access token straight from durable storage,
// bypassing in-memory state.
func (s *Store) StoredAccessToken(ctx context.Context) (string, error) {
	snap, err := s.persist.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	return snap.AccessToken, nil
}

// MirrorAccessToken rewrites the access token cookie
func (s *Store) MirrorAccessToken(token string) {
	s.persist.MirrorCookies(Snapshot{AccessToken: token})
}

// DropCookieMirror deletes the cookie copy of the session
func (s *Store) DropCookieMirror() {
	s.persist.DropCookies()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		User:            s.state.User,
		AccessToken:     s.state.AccessToken,
		RefreshToken:    s.state.RefreshToken,
		SessionID:       s.state.SessionID,
		IsAuthenticated: s.state.IsAuthenticated,
	}
}

// newSessionID формирует "session_<unix-ms>_<random>"
func newSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), suffix)
}
