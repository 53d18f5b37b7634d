package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/homeserve-admin/internal/errors"
	"github.com/pribylovaa/homeserve-admin/internal/http/middleware"
	"github.com/pribylovaa/homeserve-admin/internal/models"
	logctx "github.com/pribylovaa/homeserve-admin/internal/pkg/log"
	"github.com/pribylovaa/homeserve-admin/internal/service"
)

// Authenticator — срез сервиса, нужный мидлвару сессии.
type Authenticator interface {
	// ValidateToken проверяет access-токен и возвращает Principal.
	ValidateToken(ctx context.Context, accessToken string) (*service.Principal, error)
	// RefreshToken ротирует пару токенов по refresh-токену.
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, *models.User, error)
}

type ctxKey string

const ctxPrincipal ctxKey = "principal"

// Principal возвращает аутентифицированного субъекта запроса.
func Principal(ctx context.Context) (service.Principal, bool) {
	p, ok := ctx.Value(ctxPrincipal).(service.Principal)
	return p, ok
}

// WithPrincipal кладёт субъекта в контекст (используется в тестах хендлеров).
func WithPrincipal(ctx context.Context, p service.Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

// Auth — мидлвар аутентификации защищённых маршрутов.
//
// Поведение:
//   - access-токена нет вообще — немедленный 401 без попытки обновления:
//     «нет сессии» и «сессия протухла» — разные состояния;
//   - access валиден — кладём Principal в контекст и пропускаем запрос;
//   - access истёк — ровно одна попытка ротации по refresh-cookie
//     (конкурентные запросы схлопываются в одну ротацию на стороне
//     сервиса); при успехе оба cookie перевыпускаются этим же ответом;
//   - ротация не удалась — её ошибка уходит клиенту как есть (401),
//     cookie стираются.
func Auth(auth Authenticator, opts CookieOptions) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, ok := AccessTokenFrom(r)
			if !ok {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			p, err := auth.ValidateToken(r.Context(), accessToken)
			if err == nil {
				serve(w, r, next, *p)
				return
			}

			if !errors.Is(err, service.ErrTokenExpired) {
				apierrors.WriteError(w, r, err)
				return
			}

			refreshToken, ok := RefreshTokenFrom(r)
			if !ok {
				apierrors.WriteError(w, r, err)
				return
			}

			pair, user, refreshErr := auth.RefreshToken(r.Context(), refreshToken)
			if refreshErr != nil {
				ClearAuthCookies(w, opts)
				apierrors.WriteError(w, r, refreshErr)
				return
			}

			SetAuthCookies(w, opts, pair)

			logctx.From(r.Context()).Info("session_refreshed",
				slog.String("user_id", user.ID.String()),
			)

			serve(w, r, next, service.Principal{
				UserID:    user.ID,
				Email:     user.Email,
				Role:      user.Role,
				CompanyID: user.CompanyID,
			})
		})
	}
}

func serve(w http.ResponseWriter, r *http.Request, next http.Handler, p service.Principal) {
	ctx := context.WithValue(r.Context(), ctxPrincipal, p)
	next.ServeHTTP(w, r.WithContext(ctx))
}
