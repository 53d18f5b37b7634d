package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	apierrors "github.com/pribylovaa/homeserve-admin/internal/errors"
	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	logctx "github.com/pribylovaa/homeserve-admin/internal/pkg/log"
	"github.com/pribylovaa/homeserve-admin/internal/realtime"
	"github.com/pribylovaa/homeserve-admin/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дашборд и API живут на одном origin; cookie не уходят на чужие сайты
	// из-за SameSite=Strict.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Realtime апгрейдит соединение до WebSocket и подписывает его на hub.
// Аутентификация — та же, что у остальных маршрутов (cookie/Bearer
// через мидлвар сессии).
func (h *Handlers) Realtime(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	user, err := h.Service.Profile(r.Context(), p.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам ответил клиенту; нам остаётся лог.
		logctx.From(r.Context()).Warn("ws_upgrade_failed",
			slog.String("err", err.Error()),
		)
		return
	}

	identity := realtime.Identity{
		UserID:    user.ID,
		Name:      user.Name,
		Role:      string(user.Role),
		CompanyID: user.CompanyID,
	}

	// Соединение переживает HTTP-запрос: контекст отвязываем от отмены,
	// сохранив request-scoped логгер.
	client := realtime.NewClient(h.Hub, conn, identity)
	client.Start(context.WithoutCancel(r.Context()))
}
