// Package apitest runs an in-process fake of the zen Pipeline backend for
// tests: auth endpoints with real HS256 tokens and canned analytics.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/iudanet/zendash/pkg/api"
)

type account struct {
	password string
	user     api.User
}

// Server — fake backend поверх httptest.Server
type Server struct {
	*httptest.Server

	// BeforeMe, если задан, вызывается перед ответом на GET /auth/me
	BeforeMe func()

	accounts map[string]*account // by email
	calls    map[string]int
	cookies  map[string]string
	jwt      JWTConfig
	mu       sync.Mutex
}

// New starts a fake backend and closes it on test cleanup
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		accounts: make(map[string]*account),
		calls:    make(map[string]int),
		cookies:  make(map[string]string),
		jwt: JWTConfig{
			Secret:          []byte("apitest-secret-" + uuid.NewString()),
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.track)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/admin/dashboard-stats", s.handleDashboardStats)
			r.Get("/analytics/activity", s.handleActivity)
			r.Get("/analytics/health", s.handleHealth)
			r.Get("/analytics/dora", s.handleDORA)
			r.Get("/analytics/test-efficiency", s.handleTestEfficiency)
			r.Get("/analytics/team-performance", s.handleTeamPerformance)
			r.Get("/deployments", s.handleDeployments)
			r.Get("/tests/runs", s.handleTestRuns)
			r.Get("/analysis/vulnerabilities", s.handleVulnerabilities)
		})
	})
	return r
}

// track считает вызовы и запоминает присланные cookie
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+strings.TrimPrefix(r.URL.Path, "/api/v1")]++
		for _, c := range r.Cookies() {
			s.cookies[c.Name] = c.Value
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// AddUser registers an account directly, bypassing POST /auth/register
func (s *Server) AddUser(email, password, name string) api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, name)
}

func (s *Server) addUserLocked(email, password, name string) api.User {
	user := api.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      "developer",
		IsActive:  true,
		CreatedAt: api.Timestamp{Time: time.Now().UTC().Truncate(time.Microsecond)},
	}
	s.accounts[email] = &account{password: password, user: user}
	return user
}

// Deactivate marks the account disabled
func (s *Server) Deactivate(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[email]; ok {
		a.user.IsActive = false
	}
}

// IssueAccessToken mints a valid access token for userID with ttl
// (negative ttl yields an already-expired token).
func (s *Server) IssueAccessToken(userID string, ttl time.Duration) string {
	tok, err := signToken(s.jwt, userID, TokenTypeAccess, ttl)
	if err != nil {
		panic(err)
	}
	return tok
}

// Calls returns how many times "METHOD /path" (without /api/v1) was hit
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastCookie returns the last value of cookie name sent by the client
func (s *Server) LastCookie(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cookies[name]
	return v, ok
}

func (s *Server) userByID(id string) (*account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a, true
		}
	}
	return nil, false
}
