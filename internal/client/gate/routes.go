package gate

import (
	"net/url"
	"strings"
)

// Маршруты, которые знает gate
const (
	RouteRoot           = "/"
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteForgotPassword = "/forgot-password"
)

// RedirectParam — query параметр с исходно запрошенным путем
const RedirectParam = "redirect"

// PublicRoutes доступны без сессии; сравнение по префиксу строки
var PublicRoutes = []string{RouteLogin, RouteRegister, RouteForgotPassword}

// IsPublic reports whether path starts with any public route
func IsPublic(path string) bool {
	for _, prefix := range PublicRoutes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// LoginRedirect builds "/login?redirect=<escaped path>"
func LoginRedirect(path string) string {
	return RouteLogin + "?" + RedirectParam + "=" + url.QueryEscape(path)
}

// ResumeTarget extracts the redirect parameter from a login URL.
// Only local absolute paths are accepted; anything else resumes at root.
func ResumeTarget(loginURL string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return RouteRoot
	}
	target := u.Query().Get(RedirectParam)
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return RouteRoot
	}
	return target
}

// Normalize приводит пользовательский ввод к пути вида "/x"
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return RouteRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
