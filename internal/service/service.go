// service содержит бизнес-логику admin-api: сессии (выпуск/ротация/отзыв
// токенов), чаты с фан-аутом realtime-событий, ленту уведомлений и
// регистрацию устройств. Хранилища и внешние каналы подключаются через
// интерфейсы (storage.Storage, storage.ChatStorage, cache.RefreshCache,
// notify.FeedStore, EventSink).
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданные хранилища потокобезопасны.
//   - Ошибки возвращаются и далее маппятся HTTP-слоем на статус-коды
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pribylovaa/homeserve-admin/internal/cache"
	"github.com/pribylovaa/homeserve-admin/internal/config"
	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/notify"
	"github.com/pribylovaa/homeserve-admin/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи
	// или отсутствует в хранилище. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked — токен отозван (logout/rotation/compromise) и недействителен
	// независимо от срока. HTTP 401.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrEmailTaken — e-mail уже занят другим пользователем. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный refresh-токен
	// (редкий случай коллизий при сохранении хэша в БД после нескольких ретраев).
	// HTTP 500.
	ErrRefreshTokenCollision = errors.New("refresh token collision")

	// ErrInvalidEmail — e-mail имеет некорректный формат или не проходит политику валидации.
	// HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политикам сложности. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrInvalidRole — неизвестная роль либо роль без обязательной компании.
	// HTTP 400.
	ErrInvalidRole = errors.New("invalid role")

	// ErrPermissionDenied — операция недоступна в этой роли. HTTP 403.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRoomAccessDenied — пользователь не является стороной диалога. HTTP 403.
	ErrRoomAccessDenied = errors.New("chat room access denied")

	// ErrRoomNotFound — диалог не существует. HTTP 404.
	ErrRoomNotFound = errors.New("chat room not found")

	// ErrEmptyContent — пустой текст сообщения. HTTP 400.
	ErrEmptyContent = errors.New("empty message content")

	// ErrContentTooLong — текст сообщения длиннее лимита. HTTP 400.
	ErrContentTooLong = errors.New("message content too long")

	// ErrUnsupportedContentType — тип контента не поддерживается. HTTP 400.
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrInvalidArgument — прочие некорректные входные данные
	// (пустой device_id/push_token, пустой title уведомления и т.п.). HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")
)

// EventSink — исходящий канал realtime-событий (реализуется realtime.Hub).
// Доставка best-effort: ошибки рассылки не влияют на результат операции.
type EventSink interface {
	// Publish отправляет событие всем соединениям перечисленных пользователей.
	Publish(event string, data any, users ...uuid.UUID)
	// PublishCompany отправляет событие всем соединениям пользователей компании.
	PublishCompany(event string, data any, companyID uuid.UUID)
}

// Principal — аутентифицированный субъект запроса, восстановленный
// из access-токена. CompanyID равен uuid.Nil для superadmin и customer.
type Principal struct {
	UserID    uuid.UUID
	Email     string
	Role      models.Role
	CompanyID uuid.UUID
}

// Service описывает бизнес-логику admin-api.
type Service struct {
	storage storage.Storage
	chats   storage.ChatStorage
	cfg     config.AuthConfig
	chatCfg config.ChatConfig

	rcache cache.RefreshCache // может быть nil, если кэш не сконфигурирован
	feed   notify.FeedStore   // может быть nil, если Redis не сконфигурирован
	events EventSink          // может быть nil в тестах

	// refreshGroup схлопывает конкурентные ротации одного refresh-токена
	// в один поход в хранилище (ключ — хэш секрета).
	refreshGroup singleflight.Group
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, chats storage.ChatStorage, cfg config.AuthConfig, chatCfg config.ChatConfig) *Service {
	return &Service{
		storage: st,
		chats:   chats,
		cfg:     cfg,
		chatCfg: chatCfg,
	}
}

// SetRefreshCache устанавливает кэш refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}

// SetFeed устанавливает ленту уведомлений (опционально).
func (s *Service) SetFeed(f notify.FeedStore) {
	s.feed = f
}

// SetEvents устанавливает канал realtime-событий.
func (s *Service) SetEvents(e EventSink) {
	s.events = e
}

func (s *Service) publish(event string, data any, users ...uuid.UUID) {
	if s.events == nil {
		return
	}

	s.events.Publish(event, data, users...)
}

func (s *Service) publishCompany(event string, data any, companyID uuid.UUID) {
	if s.events == nil {
		return
	}

	s.events.PublishCompany(event, data, companyID)
}
