package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// loggingTransport логирует исходящие запросы к backend.
// НЕ логирует sensitive данные (заголовки, cookie, тела запросов)
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

// NewLoggingTransport wraps next (http.DefaultTransport when nil)
func NewLoggingTransport(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		return next
	}
	return &loggingTransport{next: next, logger: logger}
}

// RoundTrip implements http.RoundTripper
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.logger.Log(req.Context(), slog.LevelWarn, "HTTP request failed",
			"method", req.Method,
			"path", sanitizePath(req.URL),
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	// Определяем уровень логирования на основе статуса
	logLevel := slog.LevelDebug
	if resp.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if resp.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}

	t.logger.Log(req.Context(), logLevel, "HTTP request",
		"method", req.Method,
		"path", sanitizePath(req.URL),
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)

	return resp, nil
}

// safeQueryParams — параметры, которые можно писать в лог как есть
var safeQueryParams = map[string]bool{
	"limit":     true,
	"period":    true,
	"page":      true,
	"page_size": true,
	"status":    true,
}

// sanitizePath возвращает путь и query, маскируя значения неизвестных параметров
func sanitizePath(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}
	q := u.Query()
	for key := range q {
		if !safeQueryParams[key] {
			q.Set(key, "***")
		}
	}
	return u.Path + "?" + q.Encode()
}
