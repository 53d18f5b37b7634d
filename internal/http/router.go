package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/homeserve-admin/internal/http/handlers"
	"github.com/pribylovaa/homeserve-admin/internal/http/middleware"
	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	"github.com/pribylovaa/homeserve-admin/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	Cookies  session.CookieOptions
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, opts)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, opts)
	return root
}

var _ session.Authenticator = (*service.Service)(nil)

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, opts Options) {
	// Публичные маршруты.
	r.Post("/auth/register", h.RegisterUser)
	r.Post("/auth/login", h.LoginUser)
	r.Post("/auth/refresh-token", h.RefreshToken)
	r.Post("/auth/logout", h.Logout)

	// Защищённые маршруты: валидация access-токена + прозрачная ротация
	// пары по refresh-cookie при его истечении.
	r.Group(func(r chi.Router) {
		r.Use(session.Auth(h.Service, opts.Cookies))

		r.Get("/auth/profile", h.Profile)

		// chat
		r.Get("/chat/rooms", h.ListRooms)
		r.Post("/chat/rooms", h.CreateRoom)
		r.Get("/chat/rooms/{id}/messages", h.History)
		r.Post("/chat/rooms/{id}/messages", h.SendMessage)
		r.Post("/chat/rooms/{id}/read", h.MarkRead)
		r.Post("/chat/rooms/{id}/typing", h.Typing)

		// notifications
		r.Get("/notifications", h.Notifications)
		r.Post("/notifications", h.AddNotification)
		r.Delete("/notifications", h.ClearNotifications)

		// devices
		r.Post("/devices", h.RegisterDevice)
		r.Get("/devices", h.Devices)

		// websocket
		r.Get("/realtime", h.Realtime)
	})
}
