package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	"github.com/pribylovaa/homeserve-admin/internal/realtime"
	"github.com/pribylovaa/homeserve-admin/internal/service"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	Service *service.Service
	Hub     *realtime.Hub
	Cookies session.CookieOptions
}

func New(svc *service.Service, hub *realtime.Hub, cookies session.CookieOptions) *Handlers {
	return &Handlers{
		Service: svc,
		Hub:     hub,
		Cookies: cookies,
	}
}

// writeJSON пишет успешный JSON-ответ; ошибки уходят через
// apierrors.WriteError и сюда не попадают.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict разбирает тело запроса, отклоняя неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	return dec.Decode(value)
}
