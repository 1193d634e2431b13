package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/zendash/pkg/api"
)

type contextKey string

// userIDKey ключ для хранения user_id в контексте
const userIDKey contextKey = "user_id"

const minPasswordLength = 8

// requireAuth проверяет Bearer access token
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			sendDetail(w, "Not authenticated", http.StatusForbidden)
			return
		}

		claims, err := validateToken(s.jwt, parts[1], TokenTypeAccess)
		if err != nil {
			sendDetail(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		a, ok := s.userByID(claims.Subject)
		if !ok {
			sendDetail(w, "User not found", http.StatusNotFound)
			return
		}
		if !a.user.IsActive {
			sendDetail(w, "User account is disabled", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendDetail(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[req.Email]
	s.mu.Unlock()

	if !ok || a.password != req.Password {
		sendDetail(w, "Incorrect email or password", http.StatusUnauthorized)
		return
	}
	if !a.user.IsActive {
		sendDetail(w, "Account is disabled", http.StatusForbidden)
		return
	}

	access, err := signToken(s.jwt, a.user.ID, TokenTypeAccess, s.jwt.AccessTokenTTL)
	if err != nil {
		sendDetail(w, err.Error(), http.StatusInternalServerError)
		return
	}
	refresh, err := signToken(s.jwt, a.user.ID, TokenTypeRefresh, s.jwt.RefreshTokenTTL)
	if err != nil {
		sendDetail(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	a.user.LastLogin = &api.Timestamp{Time: time.Now().UTC().Truncate(time.Microsecond)}
	s.mu.Unlock()

	sendJSON(w, api.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendDetail(w, "Invalid request body", http.StatusUnprocessableEntity)
		return
	}

	if len(req.Password) < minPasswordLength {
		sendJSON(w, map[string]any{
			"detail": []api.ValidationIssue{{
				Loc:  []any{"body", "password"},
				Msg:  "String should have at least 8 characters",
				Type: "string_too_short",
			}},
		}, http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Email]; exists {
		sendDetail(w, "Email already registered", http.StatusBadRequest)
		return
	}
	user := s.addUserLocked(req.Email, req.Password, req.Name)
	sendJSON(w, user, http.StatusOK)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if s.BeforeMe != nil {
		s.BeforeMe()
	}
	a, ok := s.userByID(r.Context().Value(userIDKey).(string))
	if !ok {
		sendDetail(w, "User not found", http.StatusNotFound)
		return
	}
	s.mu.Lock()
	user := a.user
	s.mu.Unlock()
	sendJSON(w, user, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, api.MessageResponse{Message: "Logged out successfully"}, http.StatusOK)
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, api.DashboardStats{
		Trends: map[string]api.Trend{
			"deployments": {Direction: "up", Value: 12.5},
		},
		SystemHealth:        "healthy",
		DeploymentsToday:    14,
		ActiveScans:         2,
		OpenVulnerabilities: 5,
		TestPassRate:        97.3,
	}, http.StatusOK)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	items := make([]api.Activity, 0, limit)
	for i := range limit {
		items = append(items, api.Activity{
			CreatedAt:   api.Timestamp{Time: base.Add(-time.Duration(i) * time.Minute)},
			ID:          strconv.Itoa(i + 1),
			Type:        "deployment",
			Title:       "Deploy api-gateway",
			Status:      "success",
			Repository:  "zen/api-gateway",
			Environment: "production",
		})
	}
	sendJSON(w, items, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, api.HealthStatus{
		Status: "healthy",
		Services: []api.ServiceHealth{
			{Name: "database", Status: "healthy", LatencyMS: 3},
			{Name: "redis", Status: "healthy", LatencyMS: 1},
		},
	}, http.StatusOK)
}

func (s *Server) handleDORA(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, api.DORAMetrics{
		Period:                 periodOrDefault(r),
		DeploymentFrequency:    4.2,
		LeadTimeHours:          18.5,
		ChangeFailureRate:      3.1,
		MeanTimeToRecoverHours: 0.8,
	}, http.StatusOK)
}

func (s *Server) handleTestEfficiency(w http.ResponseWriter, r *http.Request) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sendJSON(w, api.TestEfficiency{
		Period: periodOrDefault(r),
		Series: []api.TestEfficiencyPoint{
			{Date: api.Timestamp{Time: day}, PassRate: 96.5, AvgDurationSecs: 312, TestsSkipped: 4, FlakyTests: 2},
			{Date: api.Timestamp{Time: day.AddDate(0, 0, 1)}, PassRate: 97.8, AvgDurationSecs: 298, TestsSkipped: 3, FlakyTests: 1},
		},
	}, http.StatusOK)
}

func (s *Server) handleTeamPerformance(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, api.TeamPerformance{
		Period: periodOrDefault(r),
		Teams: []api.TeamStats{
			{Team: "platform", Deployments: 42, PullRequests: 120, SuccessRate: 98.1, AvgReviewHours: 3.5},
			{Team: "payments", Deployments: 17, PullRequests: 64, SuccessRate: 94.0, AvgReviewHours: 6.2, OpenIncidents: 1},
		},
	}, http.StatusOK)
}

func periodOrDefault(r *http.Request) string {
	if p := r.URL.Query().Get("period"); p != "" {
		return p
	}
	return "30d"
}

func sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func sendDetail(w http.ResponseWriter, detail string, statusCode int) {
	sendJSON(w, api.ErrorResponse{Detail: detail}, statusCode)
}
