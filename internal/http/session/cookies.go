// session — аутентификация HTTP-запросов по cookie/Bearer и прозрачное
// продление сессии.
//
// Пара токенов живёт в двух HttpOnly cookie (accessToken/refreshToken);
// SPA не читает их из JS. Max-Age каждого cookie равен оставшемуся TTL
// соответствующего токена, поэтому браузер сам забывает просроченную пару.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/homeserve-admin/internal/models"
)

// Имена cookie с токенами.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// CookieOptions — параметры выставляемых cookie.
type CookieOptions struct {
	// Domain — домен cookie; пустой — домен запроса.
	Domain string
	// Secure включается в prod-окружении.
	Secure bool
}

// SetAuthCookies выставляет пару cookie по свежевыпущенным токенам.
// Пара заменяется целиком: оба cookie перезаписываются за один ответ.
func SetAuthCookies(w http.ResponseWriter, opts CookieOptions, pair *models.TokenPair) {
	now := time.Now().UTC()

	http.SetCookie(w, authCookie(opts, AccessCookie, pair.AccessToken, pair.AccessExpiresAt, now))
	http.SetCookie(w, authCookie(opts, RefreshCookie, pair.RefreshToken, pair.RefreshExpiresAt, now))
}

// ClearAuthCookies стирает оба cookie (logout/невалидная сессия).
func ClearAuthCookies(w http.ResponseWriter, opts CookieOptions) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   opts.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   opts.Secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func authCookie(opts CookieOptions, name, value string, expiresAt, now time.Time) *http.Cookie {
	maxAge := int(expiresAt.Sub(now).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   maxAge,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// AccessTokenFrom достаёт access-токен из запроса: cookie accessToken,
// затем Authorization: Bearer (для не-браузерных клиентов), затем
// query-параметр token — для WebSocket-клиентов, которые не могут
// выставить заголовок при апгрейде.
func AccessTokenFrom(r *http.Request) (string, bool) {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value, true
	}

	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		if token := strings.TrimSpace(auth[len(prefix):]); token != "" {
			return token, true
		}
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}

	return "", false
}

// RefreshTokenFrom достаёт refresh-токен из cookie refreshToken.
func RefreshTokenFrom(r *http.Request) (string, bool) {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		return c.Value, true
	}

	return "", false
}
