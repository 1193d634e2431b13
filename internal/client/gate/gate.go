// Package gate guards navigation between dashboard views. Every navigation
// re-validates the stored session and yields an allow or redirect decision.
package gate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/iudanet/zendash/internal/client/session"
	"github.com/iudanet/zendash/pkg/api"
)

// View — что показывать вместо/вместе с содержимым маршрута
type View int

const (
	// ViewLoading — идет проверка сессии
	ViewLoading View = iota
	// ViewRedirecting — защищенный маршрут без сессии
	ViewRedirecting
	// ViewContent — можно показывать содержимое маршрута
	ViewContent
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewRedirecting:
		return "redirecting"
	case ViewContent:
		return "content"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one navigation
type Decision struct {
	// Path is the requested path
	Path string
	// Redirect is where to go instead; empty means stay on Path
	Redirect string
	View     View
}

// Allowed reports whether the navigation stays on the requested path
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

//go:generate moq -out store_mock.go . SessionStore

// SessionStore is the part of session.Store the gate drives
type SessionStore interface {
	SetLoading(loading bool)
	InitializeFromStorage(ctx context.Context) error
	StoredAccessToken(ctx context.Context) (string, error)
	MirrorAccessToken(token string)
	DropCookieMirror()
	Snapshot() session.Session
	Epoch() uint64
	SetUserIfCurrent(ctx context.Context, epoch uint64, user *api.User) (bool, error)
	Logout(ctx context.Context) error
}

// UserFetcher resolves the owner of an access token
type UserFetcher interface {
	FetchCurrentUser(ctx context.Context, accessToken string) (*api.User, error)
}

// Gate — explicit guard, вызывается роутером на каждую навигацию
type Gate struct {
	store  SessionStore
	users  UserFetcher
	logger *slog.Logger

	// navMu сериализует навигации
	navMu sync.Mutex

	mu         sync.RWMutex
	current    string
	validating bool
}

// New creates a gate over the session store
func New(store SessionStore, users UserFetcher, logger *slog.Logger) *Gate {
	return &Gate{
		store:      store,
		users:      users,
		logger:     logger,
		validating: true,
	}
}

// Navigate validates the session for path and decides where to go.
// Session problems never surface as errors; they turn into a logout and a
// redirect to login. The error is non-nil only when ctx is done.
// Without a stored access token the session is cleared on public routes too,
// not only on protected ones.
func (g *Gate) Navigate(ctx context.Context, path string) (Decision, error) {
	g.navMu.Lock()
	defer g.navMu.Unlock()

	path = Normalize(path)
	g.setValidating(path, true)
	g.store.SetLoading(true)
	defer func() {
		g.store.SetLoading(false)
		g.setValidating(path, false)
	}()

	if err := g.store.InitializeFromStorage(ctx); err != nil {
		g.logger.Warn("failed to restore session from storage", "error", err)
	}

	token, err := g.store.StoredAccessToken(ctx)
	if err != nil {
		g.logger.Warn("failed to read stored access token", "error", err)
		token = ""
	}

	if token == "" {
		g.store.DropCookieMirror()
		// Сбрасываем и на публичных маршрутах: иначе восстановленный
		// snapshot без токенов уводит /login -> / -> /login
		g.clearSession(ctx)
	} else {
		g.store.MirrorAccessToken(token)
		if g.store.Snapshot().User == nil {
			g.resolveUser(ctx, token)
		}
	}

	if err := ctx.Err(); err != nil {
		return Decision{Path: path, View: ViewLoading}, err
	}

	return g.decide(path), nil
}

// resolveUser загружает профиль; любая ошибка = неявный logout
func (g *Gate) resolveUser(ctx context.Context, token string) {
	epoch := g.store.Epoch()

	user, err := g.users.FetchCurrentUser(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		g.logger.Info("session validation failed, logging out", "error", err)
		g.store.DropCookieMirror()
		g.clearSession(ctx)
		return
	}

	applied, err := g.store.SetUserIfCurrent(ctx, epoch, user)
	if err != nil {
		g.logger.Warn("failed to persist current user", "error", err)
	}
	if !applied {
		g.logger.Debug("user resolved after logout, ignoring")
	}
}

func (g *Gate) clearSession(ctx context.Context) {
	if err := g.store.Logout(ctx); err != nil {
		g.logger.Warn("failed to clear session", "error", err)
	}
}

func (g *Gate) decide(path string) Decision {
	authenticated := g.store.Snapshot().IsAuthenticated
	public := IsPublic(path)

	d := Decision{Path: path, View: viewFor(public, authenticated)}
	switch {
	case !public && !authenticated:
		d.Redirect = LoginRedirect(path)
	case public && authenticated && path != RouteRoot:
		d.Redirect = RouteRoot
	}
	return d
}

func viewFor(public, authenticated bool) View {
	if !public && !authenticated {
		return ViewRedirecting
	}
	return ViewContent
}

// RenderView reports what to render for the current path right now
func (g *Gate) RenderView() View {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.validating {
		return ViewLoading
	}
	return viewFor(IsPublic(g.current), g.store.Snapshot().IsAuthenticated)
}

// Current returns the last navigated path
func (g *Gate) Current() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

func (g *Gate) setValidating(path string, v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = path
	g.validating = v
}
