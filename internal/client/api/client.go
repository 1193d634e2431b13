package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/zendash/pkg/api"
)

// DefaultTimeout — таймаут HTTP клиента по умолчанию
const DefaultTimeout = 30 * time.Second

const apiPrefix = "/api/v1"

// Client представляет HTTP клиент для взаимодействия с backend
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option настраивает Client
type Option func(*Client)

// WithCookieJar installs the jar shared with the cookie bridge
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger wraps the transport with request logging
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.httpClient.Transport = NewLoggingTransport(c.httpClient.Transport, logger)
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Register регистрирует нового пользователя. Токены не выдаются.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.User, error) {
	var resp api.User
	if err := c.doRequest(ctx, http.MethodPost, "/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Me возвращает профиль владельца токена
func (c *Client) Me(ctx context.Context, accessToken string) (*api.User, error) {
	var resp api.User
	if err := c.doRequest(ctx, http.MethodGet, "/auth/me", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get current user failed: %w", err)
	}
	return &resp, nil
}

// FetchCurrentUser is Me under the name the auth gate depends on
func (c *Client) FetchCurrentUser(ctx context.Context, accessToken string) (*api.User, error) {
	return c.Me(ctx, accessToken)
}

// Logout уведомляет backend о выходе (для audit log)
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	var resp api.MessageResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/logout", accessToken, nil, &resp); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// DashboardStats returns the overview stat cards
func (c *Client) DashboardStats(ctx context.Context, accessToken string) (*api.DashboardStats, error) {
	var resp api.DashboardStats
	if err := c.doRequest(ctx, http.MethodGet, "/admin/dashboard-stats", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get dashboard stats failed: %w", err)
	}
	return &resp, nil
}

// Activity returns the latest limit activity entries
func (c *Client) Activity(ctx context.Context, accessToken string, limit int) ([]api.Activity, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	var resp []api.Activity
	if err := c.doRequest(ctx, http.MethodGet, "/analytics/activity?"+q.Encode(), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get activity failed: %w", err)
	}
	return resp, nil
}

// Health returns backend dependency health
func (c *Client) Health(ctx context.Context, accessToken string) (*api.HealthStatus, error) {
	var resp api.HealthStatus
	if err := c.doRequest(ctx, http.MethodGet, "/analytics/health", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get health failed: %w", err)
	}
	return &resp, nil
}

// DORA returns DORA metrics for period (e.g. "7d", "30d")
func (c *Client) DORA(ctx context.Context, accessToken, period string) (*api.DORAMetrics, error) {
	var resp api.DORAMetrics
	if err := c.doRequest(ctx, http.MethodGet, periodPath("/analytics/dora", period), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get dora metrics failed: %w", err)
	}
	return &resp, nil
}

// TestEfficiency returns the test-efficiency series for period
func (c *Client) TestEfficiency(ctx context.Context, accessToken, period string) (*api.TestEfficiency, error) {
	var resp api.TestEfficiency
	if err := c.doRequest(ctx, http.MethodGet, periodPath("/analytics/test-efficiency", period), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get test efficiency failed: %w", err)
	}
	return &resp, nil
}

// TeamPerformance returns per-team aggregates for period
func (c *Client) TeamPerformance(ctx context.Context, accessToken, period string) (*api.TeamPerformance, error) {
	var resp api.TeamPerformance
	if err := c.doRequest(ctx, http.MethodGet, periodPath("/analytics/team-performance", period), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get team performance failed: %w", err)
	}
	return &resp, nil
}

// Deployments returns the newest deployments, pageSize per page
func (c *Client) Deployments(ctx context.Context, accessToken string, pageSize int) (*api.Page[api.Deployment], error) {
	var resp api.Page[api.Deployment]
	if err := c.doRequest(ctx, http.MethodGet, pagePath("/deployments", pageSize, nil), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("list deployments failed: %w", err)
	}
	return &resp, nil
}

// TestRuns возвращает последние прогоны тестов
func (c *Client) TestRuns(ctx context.Context, accessToken string, pageSize int) (*api.Page[api.TestRun], error) {
	var resp api.Page[api.TestRun]
	if err := c.doRequest(ctx, http.MethodGet, pagePath("/tests/runs", pageSize, nil), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("list test runs failed: %w", err)
	}
	return &resp, nil
}

// Vulnerabilities lists findings, optionally filtered by status
func (c *Client) Vulnerabilities(ctx context.Context, accessToken, status string, pageSize int) (*api.Page[api.Vulnerability], error) {
	var filter url.Values
	if status != "" {
		filter = url.Values{"status": {status}}
	}
	var resp api.Page[api.Vulnerability]
	if err := c.doRequest(ctx, http.MethodGet, pagePath("/analysis/vulnerabilities", pageSize, filter), accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("list vulnerabilities failed: %w", err)
	}
	return &resp, nil
}

// pagePath добавляет page_size (если > 0) и фильтры к пути списка
func pagePath(path string, pageSize int, filter url.Values) string {
	q := url.Values{}
	for k, v := range filter {
		q[k] = v
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func periodPath(path, period string) string {
	if period == "" {
		return path
	}
	return path + "?" + url.Values{"period": {period}}.Encode()
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body, result any) error {
	endpoint := c.baseURL + apiPrefix + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
