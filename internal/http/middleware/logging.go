package middleware

import (
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/homeserve-admin/internal/pkg/log"
)

// Logging кладёт request-scoped логгер (с request_id) в контекст и пишет
// access-запись после того, как обработчик отработал.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scoped := l
			if rid := r.Header.Get(requestIDHeader); rid != "" {
				scoped = scoped.With(slog.String("request_id", rid))
			}
			r = r.WithContext(logctx.Into(r.Context(), scoped))

			sw := newStatusWriter(w)
			started := time.Now()
			next.ServeHTTP(sw, r)

			// Из контекста — чтобы запись несла тот же request_id,
			// что и логи обработчика.
			logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelInfo, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("dur", time.Since(started)),
				slog.Int("bytes", sw.count),
			)
		})
	}
}
