package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

const requestIDHeader = "X-Request-Id"

// RequestID присваивает запросу сквозной идентификатор. Пришедший от
// клиента X-Request-Id сохраняется, отсутствующий — генерируется.
// Id дублируется в заголовок запроса (его оттуда читает errors.WriteError),
// в заголовок ответа и в контекст под CtxRequestID.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = newRequestID()
				r.Header.Set(requestIDHeader, id)
			}
			w.Header().Set(requestIDHeader, id)

			ctx := context.WithValue(r.Context(), CtxRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// newRequestID — 16 случайных байт в hex (32 символа).
func newRequestID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])

	return hex.EncodeToString(buf[:])
}
