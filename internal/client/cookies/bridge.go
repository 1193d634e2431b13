// Package cookies mirrors session values into the cookie jar that the API
// client sends to the backend, so backend middleware can read auth state.
package cookies

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

const day = 24 * time.Hour

// Bridge пишет и читает именованные cookie для одного backend origin.
// Нулевой *Bridge ведет себя как среда без cookie: запись игнорируется,
// чтение ничего не находит.
type Bridge struct {
	jar  *cookiejar.Jar
	base *url.URL
	now  func() time.Time
}

// New создает Bridge для backend по адресу baseURL
func New(baseURL string) (*Bridge, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Bridge{
		jar:  jar,
		base: &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"},
		now:  time.Now,
	}, nil
}

// Jar returns the jar to install on the http.Client talking to the backend.
func (b *Bridge) Jar() http.CookieJar {
	if b == nil {
		return nil
	}
	return b.jar
}

// NewCookie builds the cookie written by Set: path "/", SameSite=Lax,
// no Domain attribute, expiring days*24h after now.
func NewCookie(name, value string, days int, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    url.PathEscape(value),
		Path:     "/",
		Expires:  now.Add(time.Duration(days) * day),
		SameSite: http.SameSiteLaxMode,
	}
}

// Set записывает cookie name=value со сроком жизни days дней
func (b *Bridge) Set(name, value string, days int) {
	if b == nil {
		return
	}
	b.jar.SetCookies(b.base, []*http.Cookie{NewCookie(name, value, days, b.now())})
}

// Delete перезаписывает cookie уже истекшей датой
func (b *Bridge) Delete(name string) {
	if b == nil {
		return
	}
	b.jar.SetCookies(b.base, []*http.Cookie{{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		SameSite: http.SameSiteLaxMode,
	}})
}

// Get returns the URL-decoded value of the first cookie called name.
func (b *Bridge) Get(name string) (string, bool) {
	if b == nil {
		return "", false
	}
	for _, c := range b.jar.Cookies(b.base) {
		if c.Name != name {
			continue
		}
		v, err := url.PathUnescape(c.Value)
		if err != nil {
			return c.Value, true
		}
		return v, true
	}
	return "", false
}
