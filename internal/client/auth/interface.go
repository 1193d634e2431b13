package auth

import (
	"context"

	"github.com/iudanet/zendash/internal/client/session"
	"github.com/iudanet/zendash/pkg/api"
)

//go:generate moq -out apiclient_mock.go . APIClient

// APIClient — auth endpoints backend
type APIClient interface {
	// Login выполняет POST /auth/login
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)

	// Register выполняет POST /auth/register; токены не выдаются
	Register(ctx context.Context, req api.RegisterRequest) (*api.User, error)

	// Me возвращает профиль владельца токена
	Me(ctx context.Context, accessToken string) (*api.User, error)

	// Logout уведомляет backend о выходе
	Logout(ctx context.Context, accessToken string) error
}

//go:generate moq -out sessionstore_mock.go . SessionStore

// SessionStore is the part of session.Store the auth flows write to
type SessionStore interface {
	SetTokens(ctx context.Context, accessToken, refreshToken string) error
	SetUserIfCurrent(ctx context.Context, epoch uint64, user *api.User) (bool, error)
	Epoch() uint64
	Snapshot() session.Session
	Logout(ctx context.Context) error
}
