package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/iudanet/zendash/internal/client/auth"
	"github.com/iudanet/zendash/internal/client/storage"
	"github.com/iudanet/zendash/pkg/api"
)

// ErrPasswordMismatch возвращается, когда подтверждение не совпало с паролем
var ErrPasswordMismatch = errors.New("passwords do not match")

func (r *Root) loginCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session locally",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			a.restore(ctx)
			_, err := a.login(ctx, email)
			return err
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted when empty)")
	return cmd
}

func (r *Root) registerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			return a.register(ctx)
		}),
	}
}

func (r *Root) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and delete the local session",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			a.restore(ctx)
			if err := a.auth.Logout(ctx); err != nil {
				return fmt.Errorf("%s: %w", auth.GenericLogoutError, err)
			}
			a.io.Println("✓ Logout successful!")
			a.io.Println("Your local session has been deleted.")
			return nil
		}),
	}
}

func (r *Root) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session state",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, a *App, _ []string) error {
			a.status(ctx, time.Now())
			return nil
		}),
	}
}

// restore поднимает сохраненную сессию в память процесса
func (a *App) restore(ctx context.Context) {
	if err := a.store.InitializeFromStorage(ctx); err != nil {
		a.logger.Warn("failed to restore session from storage", "error", err)
	}
}

func (a *App) login(ctx context.Context, email string) (*api.User, error) {
	a.io.Println("=== Login ===")

	var err error
	if email == "" {
		email, err = a.io.ReadInput("Email: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read email: %w", err)
		}
	}
	password, err := a.io.ReadPassword("Password: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	a.io.Println("Authenticating...")
	user, err := a.auth.Login(ctx, email, password)
	if err != nil {
		a.logger.Debug("login failed", "error", err)
		return nil, errors.New(auth.UserMessage(err, auth.GenericLoginError))
	}

	a.io.Println("✓ Login successful!")
	a.io.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
	return user, nil
}

func (a *App) register(ctx context.Context) error {
	a.io.Println("=== Registration ===")

	name, err := a.io.ReadInput("Name: ")
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	email, err := a.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	password, err := a.io.ReadPassword("Password (min 8 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := a.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	user, err := a.auth.Register(ctx, email, password, name)
	if err != nil {
		a.logger.Debug("registration failed", "error", err)
		return errors.New(auth.UserMessage(err, auth.GenericRegisterError))
	}

	a.io.Println("✓ Registration successful!")
	a.io.Printf("Account: %s <%s>\n", user.Name, user.Email)
	a.io.Println("Please run 'zendash login' to sign in.")
	return nil
}

func (a *App) status(ctx context.Context, now time.Time) {
	a.io.Println("=== Session Status ===")
	a.restore(ctx)

	s := a.store.Snapshot()
	if !s.IsAuthenticated {
		a.io.Println("Status: Not authenticated")
		a.io.Println("Run 'zendash login' to sign in.")
		return
	}

	a.io.Println("Status: Authenticated")
	if s.User != nil {
		a.io.Printf("User: %s <%s>\n", s.User.Name, s.User.Email)
	} else {
		a.io.Println("User: not loaded yet (run 'zendash open /' to validate)")
	}
	a.io.Printf("Session: %s\n", s.SessionID)

	if exp, ok := tokenExpiry(s.AccessToken); ok {
		a.io.Printf("Token expires: %s\n", exp.Format(time.RFC3339))
		if remaining := exp.Sub(now); remaining > 0 {
			a.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
		} else {
			a.io.Println("⚠️  Access token has expired. Please login again.")
		}
	}

	_, mirrored := a.bridge.Get(storage.KeyAccessToken)
	a.io.Printf("Cookie mirror: %t\n", mirrored)
}

// tokenExpiry читает exp без проверки подписи: только для отображения
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
