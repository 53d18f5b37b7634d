// middleware — HTTP-обвязка admin-api: цепочка мидлваров, сквозной
// request id, таймауты, восстановление после паник и access-лог.
package middleware

import (
	"net/http"
)

// CtxKey — тип ключей контекста HTTP-слоя.
type CtxKey string

// CtxRequestID — ключ, по которому в контексте лежит X-Request-Id.
const CtxRequestID CtxKey = "request_id"

// Middleware оборачивает http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain строит цепочку: первый перечисленный мидлвар оказывается самым
// внешним и отрабатывает раньше остальных.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	wrapped := h
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}

	return wrapped
}

// statusWriter запоминает код ответа и число записанных байт для access-лога.
type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Write фиксирует неявный 200, когда handler пишет тело без WriteHeader.
func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(p)
	w.count += n

	return n, err
}
