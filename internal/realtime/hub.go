package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// EventHandler обрабатывает события, пришедшие от клиента.
// Реализуется chat-сервисом; hub ничего не знает о семантике событий.
type EventHandler interface {
	HandleEvent(ctx context.Context, from Identity, env Envelope)
}

// outbound — адресная рассылка: payload уходит каждому соединению
// каждого из перечисленных пользователей и каждому соединению компании.
type outbound struct {
	users   []uuid.UUID
	company uuid.UUID
	payload []byte
}

// Hub — менеджер WebSocket-соединений.
// Всё изменяемое состояние принадлежит горутине Run; снаружи только каналы.
type Hub struct {
	log *slog.Logger

	clients   map[*Client]struct{}
	byUser    map[uuid.UUID]map[*Client]struct{}
	byCompany map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	send       chan outbound

	handler EventHandler
	running atomic.Bool
}

// NewHub создаёт hub; события клиентов уходят в handler (может быть nil —
// тогда входящие события только логируются).
func NewHub(log *slog.Logger, handler EventHandler) *Hub {
	if log == nil {
		log = slog.Default()
	}

	return &Hub{
		log:        log,
		clients:    make(map[*Client]struct{}),
		byUser:     make(map[uuid.UUID]map[*Client]struct{}),
		byCompany:  make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan outbound, 64),
		handler:    handler,
	}
}

// SetHandler задаёт обработчик входящих событий до запуска Run.
func (h *Hub) SetHandler(handler EventHandler) { h.handler = handler }

// Run — цикл обслуживания соединений; завершается по ctx.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			set, ok := h.byUser[c.identity.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.byUser[c.identity.UserID] = set
			}
			set[c] = struct{}{}

			if c.identity.CompanyID != uuid.Nil {
				cset, ok := h.byCompany[c.identity.CompanyID]
				if !ok {
					cset = make(map[*Client]struct{})
					h.byCompany[c.identity.CompanyID] = cset
				}
				cset[c] = struct{}{}
			}

			h.log.Debug("realtime_client_registered",
				slog.String("user_id", c.identity.UserID.String()),
				slog.Int("connections", len(h.clients)),
			)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}

		case out := <-h.send:
			h.deliver(out)
		}
	}
}

// deliver раздаёт payload адресатам; каждому соединению не более одного раза.
func (h *Hub) deliver(out outbound) {
	seen := make(map[*Client]struct{})

	push := func(c *Client) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}

		select {
		case c.sendCh <- out.payload:
		default:
			// Медленный потребитель теряет соединение, не hub.
			h.drop(c)
		}
	}

	for _, uid := range out.users {
		for c := range h.byUser[uid] {
			push(c)
		}
	}

	if out.company != uuid.Nil {
		for c := range h.byCompany[out.company] {
			push(c)
		}
	}
}

// drop вычищает клиента из реестров и закрывает его канал отправки.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)

	if set, ok := h.byUser[c.identity.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.identity.UserID)
		}
	}

	if set, ok := h.byCompany[c.identity.CompanyID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byCompany, c.identity.CompanyID)
		}
	}

	close(c.sendCh)
}

// Publish отправляет именованное событие всем соединениям перечисленных
// пользователей. До запуска Run — предупреждение в лог и no-op.
func (h *Hub) Publish(event string, data any, users ...uuid.UUID) {
	if len(users) == 0 {
		return
	}

	h.publish(event, data, outbound{users: users})
}

// PublishCompany отправляет событие всем соединениям пользователей компании.
func (h *Hub) PublishCompany(event string, data any, companyID uuid.UUID) {
	if companyID == uuid.Nil {
		return
	}

	h.publish(event, data, outbound{company: companyID})
}

func (h *Hub) publish(event string, data any, out outbound) {
	if !h.running.Load() {
		h.log.Warn("realtime_publish_before_run", slog.String("event", event))
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		h.log.Error("realtime_marshal_failed",
			slog.String("event", event),
			slog.String("err", err.Error()),
		)
		return
	}

	payload, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		h.log.Error("realtime_marshal_failed",
			slog.String("event", event),
			slog.String("err", err.Error()),
		)
		return
	}

	h.send <- outbound{users: out.users, company: out.company, payload: payload}
}

// dispatch передаёт входящее событие обработчику.
func (h *Hub) dispatch(ctx context.Context, from Identity, env Envelope) {
	if h.handler == nil {
		h.log.Warn("realtime_event_unhandled", slog.String("event", env.Event))
		return
	}

	h.handler.HandleEvent(ctx, from, env)
}
