// Package cli implements the zendash command tree on top of cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/zendash/internal/client/auth"
	"github.com/iudanet/zendash/internal/client/cookies"
	"github.com/iudanet/zendash/internal/client/dashboard"
	"github.com/iudanet/zendash/internal/client/gate"
	"github.com/iudanet/zendash/internal/client/iocli"
	"github.com/iudanet/zendash/internal/client/session"
	"github.com/iudanet/zendash/internal/config"
)

// App — собранные компоненты клиента, общие для всех команд
type App struct {
	io      iocli.IO
	auth    *auth.Service
	store   *session.Store
	gate    *gate.Gate
	dash    *dashboard.Dashboard
	bridge  *cookies.Bridge
	logger  *slog.Logger
	closers []func() error
}

// Deps lists the components an App is made of
type Deps struct {
	IO      iocli.IO
	Auth    *auth.Service
	Store   *session.Store
	Gate    *gate.Gate
	Dash    *dashboard.Dashboard
	Bridge  *cookies.Bridge
	Logger  *slog.Logger
	Closers []func() error
}

// New creates an App from already wired components
func New(d Deps) *App {
	return &App{
		io:      d.IO,
		auth:    d.Auth,
		store:   d.Store,
		gate:    d.Gate,
		dash:    d.Dash,
		bridge:  d.Bridge,
		logger:  d.Logger,
		closers: d.Closers,
	}
}

// Close releases storage and other resources in reverse order
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Factory builds the App once configuration is loaded
type Factory func(ctx context.Context, cfg *config.Config) (*App, error)

// Root — корневая команда и App, созданный для текущего запуска
type Root struct {
	cmd        *cobra.Command
	factory    Factory
	app        *App
	configFile string
}

// NewRoot creates the command tree. version is shown by --version.
func NewRoot(factory Factory, version string) (*Root, error) {
	r := &Root{factory: factory}
	v := config.New()

	r.cmd = &cobra.Command{
		Use:           "zendash",
		Short:         "Zen DevOps dashboard in your terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, r.configFile)
			if err != nil {
				return err
			}
			app, err := r.factory(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			r.app = app
			return nil
		},
	}

	flags := r.cmd.PersistentFlags()
	flags.StringVar(&r.configFile, "config", "", "Path to config file (yaml, json or toml)")
	if err := config.BindFlags(v, flags); err != nil {
		return nil, err
	}

	r.cmd.AddCommand(
		r.loginCommand(),
		r.registerCommand(),
		r.logoutCommand(),
		r.statusCommand(),
		r.openCommand(),
		r.watchCommand(),
	)
	return r, nil
}

// Command returns the underlying cobra command
func (r *Root) Command() *cobra.Command {
	return r.cmd
}

// Execute runs the command line args and closes the App afterwards
func (r *Root) Execute(ctx context.Context, args []string) error {
	r.cmd.SetArgs(args)
	err := r.cmd.ExecuteContext(ctx)

	if r.app != nil {
		if closeErr := r.app.Close(); closeErr != nil {
			r.app.logger.Error("failed to close resources", "error", closeErr)
		}
		r.app = nil
	}
	return err
}

// run адаптирует метод App к cobra RunE
func (r *Root) run(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if r.app == nil {
			return fmt.Errorf("application is not initialized")
		}
		return fn(cmd.Context(), r.app, args)
	}
}
