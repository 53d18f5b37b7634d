package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/pkg/log"
	"github.com/pribylovaa/homeserve-admin/internal/realtime"
)

// HandleEvent обрабатывает событие, пришедшее по WebSocket от клиента.
// Реализует realtime.EventHandler. Ошибки не возвращаются отправителю —
// битые или неавторизованные события логируются и отбрасываются.
func (s *Service) HandleEvent(ctx context.Context, from realtime.Identity, env realtime.Envelope) {
	const op = "service.events.HandleEvent"

	lg := log.From(ctx)

	p := Principal{
		UserID:    from.UserID,
		Role:      models.Role(from.Role),
		CompanyID: from.CompanyID,
	}
	if !p.Role.Valid() {
		lg.Warn("realtime_event_bad_identity",
			slog.String("op", op),
			slog.String("user_id", from.UserID.String()),
		)
		return
	}

	switch env.Event {
	case realtime.EventSendMessage:
		var payload realtime.SendMessagePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			s.warnEvent(ctx, op, env.Event, err)
			return
		}

		if _, err := s.SendMessage(ctx, p, payload.ChatRoomID, payload.Content, payload.ContentType); err != nil {
			s.warnEvent(ctx, op, env.Event, err)
		}

	case realtime.EventTypingStatus:
		var payload realtime.TypingStatusPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			s.warnEvent(ctx, op, env.Event, err)
			return
		}

		if err := s.Typing(ctx, p, payload.ChatRoomID, payload.IsTyping); err != nil {
			s.warnEvent(ctx, op, env.Event, err)
		}

	case realtime.EventMarkRead:
		var payload realtime.MarkReadPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			s.warnEvent(ctx, op, env.Event, err)
			return
		}

		if _, err := s.MarkRead(ctx, p, payload.ChatRoomID); err != nil {
			s.warnEvent(ctx, op, env.Event, err)
		}

	default:
		lg.Warn("realtime_unknown_event",
			slog.String("op", op),
			slog.String("event", env.Event),
		)
	}
}

func (s *Service) warnEvent(ctx context.Context, op, event string, err error) {
	log.From(ctx).Warn("realtime_event_failed",
		slog.String("op", op),
		slog.String("event", event),
		slog.String("err", err.Error()),
	)
}
