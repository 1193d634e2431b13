// Package auth implements the login, register and logout flows on top of the
// session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iudanet/zendash/internal/client/api"
	"github.com/iudanet/zendash/internal/validation"
	pkgapi "github.com/iudanet/zendash/pkg/api"
)

// Сообщения по умолчанию, когда backend не прислал detail
const (
	GenericLoginError    = "Login failed. Please check your credentials and try again."
	GenericRegisterError = "Registration failed. Please try again."
	GenericLogoutError   = "Logout failed."
)

// ErrSessionSuperseded is returned when a logout lands while login is still
// loading the profile.
var ErrSessionSuperseded = errors.New("session was closed during login")

// Service предоставляет функции авторизации
type Service struct {
	api    APIClient
	store  SessionStore
	logger *slog.Logger
}

// NewService создает новый сервис авторизации
func NewService(apiClient APIClient, store SessionStore, logger *slog.Logger) *Service {
	return &Service{
		api:    apiClient,
		store:  store,
		logger: logger,
	}
}

// Login аутентифицирует пользователя, сохраняет токены и загружает профиль.
// Повторов нет: одна неудачная попытка завершает вход.
func (s *Service) Login(ctx context.Context, email, password string) (*pkgapi.User, error) {
	if err := validation.ValidateLogin(email, password); err != nil {
		return nil, err
	}

	tokens, err := s.api.Login(ctx, pkgapi.LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.SetTokens(ctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	epoch := s.store.Epoch()

	user, err := s.api.Me(ctx, tokens.AccessToken)
	if err != nil {
		// Токены без профиля не оставляем
		if logoutErr := s.store.Logout(ctx); logoutErr != nil {
			s.logger.Warn("failed to clear session after profile error", "error", logoutErr)
		}
		return nil, err
	}

	applied, err := s.store.SetUserIfCurrent(ctx, epoch, user)
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	if !applied {
		return nil, ErrSessionSuperseded
	}

	s.logger.Info("logged in", "user_id", user.ID, "session_id", s.store.Snapshot().SessionID)
	return user, nil
}

// Register создает аккаунт. Сессия не открывается: дальше нужен Login.
func (s *Service) Register(ctx context.Context, email, password, name string) (*pkgapi.User, error) {
	if err := validation.ValidateRegister(email, password, name); err != nil {
		return nil, err
	}

	user, err := s.api.Register(ctx, pkgapi.RegisterRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
		Name:     strings.TrimSpace(name),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registered", "user_id", user.ID)
	return user, nil
}

// Logout уведомляет backend (best effort) и очищает локальную сессию.
// Ошибка backend не мешает локальному выходу.
func (s *Service) Logout(ctx context.Context) error {
	if token := s.store.Snapshot().AccessToken; token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			s.logger.Warn("backend logout failed, clearing local session anyway", "error", err)
		}
	}

	if err := s.store.Logout(ctx); err != nil {
		return fmt.Errorf("failed to clear local session: %w", err)
	}
	return nil
}

// UserMessage turns err into the inline message shown under a form:
// validation issues, the backend's detail, or fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var ve *validation.Error
	if errors.As(err, &ve) {
		return strings.Join(ve.Issues, "; ")
	}
	if detail, ok := api.Detail(err); ok {
		return detail
	}
	return fallback
}
