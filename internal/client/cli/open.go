package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/zendash/internal/client/api"
	"github.com/iudanet/zendash/internal/client/dashboard"
	"github.com/iudanet/zendash/internal/client/gate"
)

// MaxRedirects ограничивает цепочку редиректов одной навигации
const MaxRedirects = 5

// ErrTooManyRedirects is returned when navigation does not settle
var ErrTooManyRedirects = errors.New("too many redirects")

// clearScreen — ANSI: курсор в начало и очистка экрана
const clearScreen = "\033[H\033[2J"

func (r *Root) openCommand() *cobra.Command {
	var noLogin bool
	cmd := &cobra.Command{
		Use:   "open [path]",
		Short: "Open a dashboard page once",
		Long: "Open navigates to path (default \"/\") through the session guard, follows\n" +
			"redirects, asks for credentials on the login page and prints the page.\n" +
			"Pages: " + strings.Join(dashboard.Routes(), ", "),
		Args: cobra.MaximumNArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, args []string) error {
			view, err := a.navigate(ctx, firstArg(args), !noLogin)
			if err != nil {
				return err
			}

			if err := view.Refresh(ctx); err != nil {
				a.logger.Debug("some panels failed to load", "error", err)
				if api.IsUnauthorized(err) {
					defer a.io.Println("Session was rejected by the server. Run 'zendash login' to sign in again.")
				}
			}
			view.Render(a.io)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&noLogin, "no-login", false, "Do not prompt for credentials on the login page")
	return cmd
}

func (r *Root) watchCommand() *cobra.Command {
	var clearEach bool
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Show a dashboard page and keep its widgets refreshing",
		Args:  cobra.MaximumNArgs(1),
		RunE: r.run(func(ctx context.Context, a *App, args []string) error {
			view, err := a.navigate(ctx, firstArg(args), true)
			if err != nil {
				return err
			}
			return a.watch(ctx, view, clearEach)
		}),
	}
	cmd.Flags().BoolVar(&clearEach, "clear", true, "Clear the screen before each redraw")
	return cmd
}

// navigate — роутер: gate на каждом шаге, редиректы, вход на /login
func (a *App) navigate(ctx context.Context, path string, interactive bool) (*dashboard.View, error) {
	path = gate.Normalize(path)

	for range MaxRedirects + 1 {
		d, err := a.gate.Navigate(ctx, path)
		if err != nil {
			return nil, err
		}

		if !d.Allowed() {
			a.logger.Debug("redirect", "from", d.Path, "to", d.Redirect)
			a.io.Printf("→ %s\n", d.Redirect)
			path = d.Redirect
			continue
		}

		if interactive && isLoginPage(d.Path) {
			if _, err := a.login(ctx, ""); err != nil {
				return nil, err
			}
			path = gate.ResumeTarget(d.Path)
			continue
		}

		return a.dash.View(d.Path)
	}
	return nil, fmt.Errorf("%w: last target %s", ErrTooManyRedirects, path)
}

// watch перерисовывает view после каждого обновления виджета до отмены ctx
func (a *App) watch(ctx context.Context, view *dashboard.View, clearEach bool) error {
	if err := view.Mount(ctx); err != nil {
		return err
	}
	defer view.Unmount()

	redraw := func() {
		if clearEach {
			a.io.Printf("%s", clearScreen)
		}
		view.Render(a.io)
	}

	redraw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-view.Updates():
			redraw()
		}
	}
}

func isLoginPage(path string) bool {
	return path == gate.RouteLogin || strings.HasPrefix(path, gate.RouteLogin+"?")
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
