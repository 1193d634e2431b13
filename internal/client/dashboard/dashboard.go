// Package dashboard maps routes to views made of polling widgets and renders
// them as text.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/zendash/internal/client/poller"
	"github.com/iudanet/zendash/pkg/api"
)

// ErrViewMounted возвращается при повторном Mount
var ErrViewMounted = errors.New("view already mounted")

//go:generate moq -out source_mock.go . Source

// Source — analytics and list endpoints backend
type Source interface {
	DashboardStats(ctx context.Context, accessToken string) (*api.DashboardStats, error)
	Activity(ctx context.Context, accessToken string, limit int) ([]api.Activity, error)
	Health(ctx context.Context, accessToken string) (*api.HealthStatus, error)
	DORA(ctx context.Context, accessToken, period string) (*api.DORAMetrics, error)
	TestEfficiency(ctx context.Context, accessToken, period string) (*api.TestEfficiency, error)
	TeamPerformance(ctx context.Context, accessToken, period string) (*api.TeamPerformance, error)
	Deployments(ctx context.Context, accessToken string, pageSize int) (*api.Page[api.Deployment], error)
	TestRuns(ctx context.Context, accessToken string, pageSize int) (*api.Page[api.TestRun], error)
	Vulnerabilities(ctx context.Context, accessToken, status string, pageSize int) (*api.Page[api.Vulnerability], error)
}

// Config — параметры запросов виджетов
type Config struct {
	// Period for DORA, test-efficiency and team-performance, e.g. "30d"
	Period string
	// ActivityLimit caps the activity feed
	ActivityLimit int
	// ListSize — page_size для списков деплоев, прогонов и уязвимостей
	ListSize int
}

// DefaultConfig returns the defaults used by the web dashboard
func DefaultConfig() Config {
	return Config{Period: "30d", ActivityLimit: 10, ListSize: 10}
}

// Dashboard строит view по маршруту
type Dashboard struct {
	src    Source
	token  TokenSource
	logger *slog.Logger
	cfg    Config
}

// New creates a dashboard over src. token is read on every refresh.
func New(src Source, token TokenSource, cfg Config, logger *slog.Logger) *Dashboard {
	def := DefaultConfig()
	if cfg.Period == "" {
		cfg.Period = def.Period
	}
	if cfg.ActivityLimit <= 0 {
		cfg.ActivityLimit = def.ActivityLimit
	}
	if cfg.ListSize <= 0 {
		cfg.ListSize = def.ListSize
	}
	return &Dashboard{
		src:    src,
		token:  token,
		cfg:    cfg,
		logger: logger,
	}
}

// View — страница дашборда
type View struct {
	group   *poller.Group
	logger  *slog.Logger
	updates chan string
	Path    string
	Title   string
	// Note is shown instead of widgets on pages without data
	Note   string
	Panels []Panel
}

// Routes returns the known route paths in menu order
func Routes() []string {
	return []string{"/", "/deployments", "/tests", "/security", "/team", "/login", "/register", "/forgot-password"}
}

// View builds the view for path (query string ignored)
func (d *Dashboard) View(path string) (*View, error) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	v := &View{Path: path, logger: d.logger, updates: make(chan string, 16)}
	switch path {
	case "/":
		v.Title = "Overview"
		v.Panels = []Panel{d.statCards(v), d.activity(v), d.health(v)}
	case "/deployments":
		v.Title = "Deployments"
		v.Panels = []Panel{d.dora(v), d.deployments(v), d.activity(v)}
	case "/tests":
		v.Title = "Tests"
		v.Panels = []Panel{d.testEfficiency(v), d.testRuns(v)}
	case "/security":
		v.Title = "Security"
		v.Panels = []Panel{d.security(v), d.vulnerabilities(v), d.health(v)}
	case "/team":
		v.Title = "Team"
		v.Panels = []Panel{d.teamPerformance(v)}
	case "/login":
		v.Title = "Sign in"
		v.Note = "Run 'zendash login' to sign in."
	case "/register":
		v.Title = "Create account"
		v.Note = "Run 'zendash register' to create an account."
	case "/forgot-password":
		v.Title = "Reset password"
		v.Note = "Password reset is handled by your organization admin."
	default:
		return nil, fmt.Errorf("unknown route %q", path)
	}
	return v, nil
}

// Mount starts polling every panel; Unmount stops it
func (v *View) Mount(ctx context.Context) error {
	if v.group != nil {
		return ErrViewMounted
	}
	g := poller.NewGroup()
	for _, p := range v.Panels {
		g.Add(poller.New(p.Name(), p.Interval(), p.Refresh, v.logger))
	}
	if err := g.Start(ctx); err != nil {
		return err
	}
	v.group = g
	return nil
}

// Unmount stops polling and waits for in-flight refreshes to finish.
// No panel changes after Unmount returns.
func (v *View) Unmount() {
	if v.group == nil {
		return
	}
	v.group.Stop()
	v.group = nil
}

// Updates delivers the name of each panel after it refreshes.
// Notifications are dropped when nobody reads.
func (v *View) Updates() <-chan string {
	return v.updates
}

// Refresh loads every panel once, synchronously
func (v *View) Refresh(ctx context.Context) error {
	var firstErr error
	for _, p := range v.Panels {
		if err := p.Refresh(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return firstErr
}

// Render writes the whole view
func (v *View) Render(w io.Writer) {
	_, _ = fmt.Fprintf(w, "═══ %s ═══\n", v.Title)
	if v.Note != "" {
		_, _ = fmt.Fprintln(w, v.Note)
		return
	}
	for _, p := range v.Panels {
		_, _ = fmt.Fprintln(w)
		p.Render(w)
	}
}

func (v *View) notify(name string) {
	select {
	case v.updates <- name:
	default:
	}
}

func newWidget[T any](v *View, d *Dashboard, name, title string, interval time.Duration,
	fetch func(ctx context.Context, token string) (T, error), render func(io.Writer, T)) *widget[T] {
	return &widget[T]{
		name:     name,
		title:    title,
		interval: interval,
		fetch:    fetch,
		render:   render,
		token:    d.token,
		notify:   v.notify,
	}
}

func (d *Dashboard) statCards(v *View) Panel {
	return newWidget(v, d, "stats", "Key metrics", SlowInterval, func(ctx context.Context, token string) (*api.DashboardStats, error) {
		return d.src.DashboardStats(ctx, token)
	}, renderStatCards)
}

func (d *Dashboard) security(v *View) Panel {
	return newWidget(v, d, "security", "Security posture", SlowInterval, func(ctx context.Context, token string) (*api.DashboardStats, error) {
		return d.src.DashboardStats(ctx, token)
	}, renderSecurity)
}

func (d *Dashboard) activity(v *View) Panel {
	return newWidget(v, d, "activity", "Recent activity", FastInterval, func(ctx context.Context, token string) ([]api.Activity, error) {
		return d.src.Activity(ctx, token, d.cfg.ActivityLimit)
	}, renderActivity)
}

func (d *Dashboard) health(v *View) Panel {
	return newWidget(v, d, "health", "System health", FastInterval, func(ctx context.Context, token string) (*api.HealthStatus, error) {
		return d.src.Health(ctx, token)
	}, renderHealth)
}

func (d *Dashboard) dora(v *View) Panel {
	return newWidget(v, d, "dora", "DORA metrics ("+d.cfg.Period+")", SlowInterval, func(ctx context.Context, token string) (*api.DORAMetrics, error) {
		return d.src.DORA(ctx, token, d.cfg.Period)
	}, renderDORA)
}

func (d *Dashboard) testEfficiency(v *View) Panel {
	return newWidget(v, d, "test-efficiency", "Test efficiency ("+d.cfg.Period+")", SlowInterval, func(ctx context.Context, token string) (*api.TestEfficiency, error) {
		return d.src.TestEfficiency(ctx, token, d.cfg.Period)
	}, renderTestEfficiency)
}

func (d *Dashboard) teamPerformance(v *View) Panel {
	return newWidget(v, d, "team-performance", "Team performance ("+d.cfg.Period+")", SlowInterval, func(ctx context.Context, token string) (*api.TeamPerformance, error) {
		return d.src.TeamPerformance(ctx, token, d.cfg.Period)
	}, renderTeamPerformance)
}

func (d *Dashboard) deployments(v *View) Panel {
	return newWidget(v, d, "deployments", "Recent deployments", FastInterval, func(ctx context.Context, token string) (*api.Page[api.Deployment], error) {
		return d.src.Deployments(ctx, token, d.cfg.ListSize)
	}, renderDeployments)
}

func (d *Dashboard) testRuns(v *View) Panel {
	return newWidget(v, d, "test-runs", "Recent test runs", FastInterval, func(ctx context.Context, token string) (*api.Page[api.TestRun], error) {
		return d.src.TestRuns(ctx, token, d.cfg.ListSize)
	}, renderTestRuns)
}

func (d *Dashboard) vulnerabilities(v *View) Panel {
	return newWidget(v, d, "vulnerabilities", "Open vulnerabilities", SlowInterval, func(ctx context.Context, token string) (*api.Page[api.Vulnerability], error) {
		return d.src.Vulnerabilities(ctx, token, api.VulnerabilityOpen, d.cfg.ListSize)
	}, renderVulnerabilities)
}
