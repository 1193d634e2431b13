package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zendash/internal/apitest"
	"github.com/iudanet/zendash/pkg/api"
)

// TestNewClient проверяет создание нового клиента
func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8000/")

	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8000", client.baseURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Nil(t, client.httpClient.Jar)
}

func TestNewClient_Options(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client := NewClient("http://localhost:8000",
		WithCookieJar(jar),
		WithTimeout(5*time.Second),
		WithTimeout(0),
		WithLogger(slog.Default()),
	)

	assert.Same(t, jar, client.httpClient.Jar)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.IsType(t, &loggingTransport{}, client.httpClient.Transport)
}

// TestClient_Login проверяет успешный логин
func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req api.LoginRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", req.Email)
		assert.Equal(t, "s3cret-pass", req.Password)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(api.TokenResponse{
			AccessToken:  "access_token_123",
			RefreshToken: "refresh_token_456",
			TokenType:    "bearer",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	resp, err := client.Login(context.Background(), api.LoginRequest{
		Email:    "ops@example.com",
		Password: "s3cret-pass",
	})

	require.NoError(t, err)
	assert.Equal(t, "access_token_123", resp.AccessToken)
	assert.Equal(t, "refresh_token_456", resp.RefreshToken)
}

// TestClient_Errors проверяет разбор detail из ответа с ошибкой
func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantDetail     string
		expectedErrMsg string
		statusCode     int
	}{
		{
			name:           "string detail",
			statusCode:     http.StatusUnauthorized,
			body:           `{"detail":"Incorrect email or password"}`,
			wantDetail:     "Incorrect email or password",
			expectedErrMsg: "server error (401): Incorrect email or password",
		},
		{
			name:           "validation list",
			statusCode:     http.StatusUnprocessableEntity,
			body:           `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error"},{"loc":["body","name"],"msg":"Field required","type":"missing"}]}`,
			wantDetail:     "value is not a valid email address; Field required",
			expectedErrMsg: "server error (422)",
		},
		{
			name:           "plain text",
			statusCode:     http.StatusInternalServerError,
			body:           "Internal Server Error",
			expectedErrMsg: "request failed with status 500",
		},
		{
			name:           "empty detail",
			statusCode:     http.StatusBadGateway,
			body:           `{"detail":null}`,
			expectedErrMsg: "request failed with status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			resp, err := client.Login(context.Background(), api.LoginRequest{Email: "a@b.c", Password: "x"})

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Contains(t, err.Error(), tt.expectedErrMsg)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)

			detail, ok := Detail(err)
			assert.Equal(t, tt.wantDetail != "", ok)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestClient_MeNaiveTimestamps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/me", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
			"email": "ops@example.com",
			"name": "Ops",
			"avatar_url": null,
			"role": "developer",
			"organization_id": null,
			"is_active": true,
			"last_login": "2025-01-15T10:30:00.123456",
			"created_at": "2025-01-02T08:00:00"
		}`))
	}))
	defer server.Close()

	user, err := NewClient(server.URL).Me(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC), user.CreatedAt.Time)
	require.NotNil(t, user.LastLogin)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 123456000, time.UTC), user.LastLogin.Time)
	assert.Nil(t, user.AvatarURL)
	assert.Nil(t, user.UpdatedAt)
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(server.URL)
	_, err := client.Me(context.Background(), "tok")

	require.Error(t, err)
	_, ok := Detail(err)
	assert.False(t, ok)
	assert.False(t, IsUnauthorized(err))
}

func TestClient_AgainstFakeBackend(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser("ops@example.com", "s3cret-pass", "Ops")
	ctx := context.Background()

	client := NewClient(backend.URL)

	tokens, err := client.Login(ctx, api.LoginRequest{Email: "ops@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	user, err := client.Me(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", user.Email)
	assert.True(t, user.IsActive)

	stats, err := client.DashboardStats(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 14, stats.DeploymentsToday)

	activity, err := client.Activity(ctx, tokens.AccessToken, 3)
	require.NoError(t, err)
	assert.Len(t, activity, 3)

	health, err := client.Health(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	dora, err := client.DORA(ctx, tokens.AccessToken, "7d")
	require.NoError(t, err)
	assert.Equal(t, "7d", dora.Period)

	eff, err := client.TestEfficiency(ctx, tokens.AccessToken, "")
	require.NoError(t, err)
	assert.Equal(t, "30d", eff.Period)
	assert.Len(t, eff.Series, 2)

	team, err := client.TeamPerformance(ctx, tokens.AccessToken, "90d")
	require.NoError(t, err)
	assert.Len(t, team.Teams, 2)

	deployments, err := client.Deployments(ctx, tokens.AccessToken, 1)
	require.NoError(t, err)
	require.Len(t, deployments.Items, 1)
	assert.Equal(t, 2, deployments.Total)
	assert.Equal(t, 2, deployments.TotalPages)
	assert.Equal(t, time.Date(2026, 1, 1, 12, 0, 0, 123456000, time.UTC), deployments.Items[0].CreatedAt.Time)

	runs, err := client.TestRuns(ctx, tokens.AccessToken, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, runs.PageSize)
	assert.Len(t, runs.Items, 2)

	vulns, err := client.Vulnerabilities(ctx, tokens.AccessToken, api.VulnerabilityOpen, 10)
	require.NoError(t, err)
	require.Len(t, vulns.Items, 1)
	assert.Equal(t, "high", vulns.Items[0].Severity)

	_, err = client.Vulnerabilities(ctx, tokens.AccessToken, "", 500)
	detail, ok := Detail(err)
	require.True(t, ok)
	assert.Contains(t, detail, "page_size")

	require.NoError(t, client.Logout(ctx, tokens.AccessToken))
	assert.Equal(t, 1, backend.Calls("POST /auth/logout"))
}

func TestClient_Unauthorized(t *testing.T) {
	backend := apitest.New(t)
	user := backend.AddUser("ops@example.com", "s3cret-pass", "Ops")
	ctx := context.Background()
	client := NewClient(backend.URL)

	expired := backend.IssueAccessToken(user.ID, -time.Minute)
	_, err := client.Me(ctx, expired)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	detail, ok := Detail(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid or expired token", detail)

	_, err = client.Me(ctx, "")
	assert.True(t, IsUnauthorized(err), "missing bearer is 403")
}

func TestClient_Register(t *testing.T) {
	backend := apitest.New(t)
	ctx := context.Background()
	client := NewClient(backend.URL)

	user, err := client.Register(ctx, api.RegisterRequest{Email: "new@example.com", Password: "longenough", Name: "New"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "New", user.Name)

	_, err = client.Register(ctx, api.RegisterRequest{Email: "new@example.com", Password: "longenough", Name: "New"})
	detail, ok := Detail(err)
	require.True(t, ok)
	assert.Equal(t, "Email already registered", detail)

	_, err = client.Register(ctx, api.RegisterRequest{Email: "short@example.com", Password: "short", Name: "S"})
	detail, ok = Detail(err)
	require.True(t, ok)
	assert.Equal(t, "String should have at least 8 characters", detail)
}

func TestClient_SendsJarCookies(t *testing.T) {
	backend := apitest.New(t)
	user := backend.AddUser("ops@example.com", "s3cret-pass", "Ops")

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(backend.URL)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: "session_id", Value: "session_1_abc", Path: "/"}})

	client := NewClient(backend.URL, WithCookieJar(jar))
	_, err = client.Me(context.Background(), backend.IssueAccessToken(user.ID, time.Minute))
	require.NoError(t, err)

	got, ok := backend.LastCookie("session_id")
	require.True(t, ok)
	assert.Equal(t, "session_1_abc", got)
}

func TestLoggingTransport_NoSecrets(t *testing.T) {
	backend := apitest.New(t)
	user := backend.AddUser("ops@example.com", "s3cret-pass", "Ops")
	token := backend.IssueAccessToken(user.ID, time.Minute)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := NewClient(backend.URL, WithLogger(logger))

	_, err := client.Activity(context.Background(), token, 5)
	require.NoError(t, err)
	_, err = client.Login(context.Background(), api.LoginRequest{Email: "ops@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "/api/v1/analytics/activity?limit=5")
	assert.Contains(t, out, "status=200")
	assert.NotContains(t, out, token)
	assert.NotContains(t, out, "s3cret-pass")
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "no query", raw: "/api/v1/auth/me", want: "/api/v1/auth/me"},
		{name: "safe params", raw: "/api/v1/analytics/dora?period=7d", want: "/api/v1/analytics/dora?period=7d"},
		{name: "unknown param masked", raw: "/api/v1/x?token=abc&limit=3", want: "/api/v1/x?limit=3&token=%2A%2A%2A"},
		{name: "list params", raw: "/api/v1/analysis/vulnerabilities?page_size=10&status=open", want: "/api/v1/analysis/vulnerabilities?page_size=10&status=open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sanitizePath(u))
		})
	}
}
