package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/realtime"
	"github.com/pribylovaa/homeserve-admin/internal/storage"
)

// RoomView — проводное представление диалога (JSON для HTTP и событий).
type RoomView struct {
	ID                  string    `json:"id"`
	CustomerID          uuid.UUID `json:"customer_id"`
	CustomerName        string    `json:"customer_name"`
	CompanyID           uuid.UUID `json:"company_id"`
	BookingID           string    `json:"booking_id,omitempty"`
	LastMessage         string    `json:"last_message,omitempty"`
	LastMessageAt       time.Time `json:"last_message_at"`
	LastMessageSenderID uuid.UUID `json:"last_message_sender_id"`
	UnreadCountCompany  int64     `json:"unread_count_company"`
	UnreadCountCustomer int64     `json:"unread_count_customer"`
	CreatedAt           time.Time `json:"created_at"`
}

// MessageView — проводное представление сообщения.
type MessageView struct {
	ID          string    `json:"id"`
	ChatRoomID  string    `json:"chat_room_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	SenderType  string    `json:"sender_type"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	IsRead      bool      `json:"is_read"`
}

// NewMessageEvent — payload события new_message.
type NewMessageEvent struct {
	ChatRoomID string      `json:"chat_room_id"`
	Message    MessageView `json:"message"`
}

// TypingEvent — payload события user_typing.
type TypingEvent struct {
	ChatRoomID string    `json:"chat_room_id"`
	UserID     uuid.UUID `json:"user_id"`
	IsTyping   bool      `json:"is_typing"`
}

// MessagesReadEvent — payload события messages_read.
type MessagesReadEvent struct {
	ChatRoomID string    `json:"chat_room_id"`
	ReaderID   uuid.UUID `json:"reader_id"`
	ReadAt     time.Time `json:"read_at"`
	Count      int64     `json:"count"`
}

// UnreadCountsEvent — payload события unread_counts.
type UnreadCountsEvent struct {
	ChatRoomID          string `json:"chat_room_id"`
	UnreadCountCompany  int64  `json:"unread_count_company"`
	UnreadCountCustomer int64  `json:"unread_count_customer"`
}

// RoomCreatedEvent — payload события chat_room_created.
type RoomCreatedEvent struct {
	Room RoomView `json:"room"`
}

// RoomToView конвертирует доменную комнату в проводное представление.
func RoomToView(r *models.ChatRoom) RoomView {
	return RoomView{
		ID:                  r.ID,
		CustomerID:          r.CustomerID,
		CustomerName:        r.CustomerName,
		CompanyID:           r.CompanyID,
		BookingID:           r.BookingID,
		LastMessage:         r.LastMessage,
		LastMessageAt:       r.LastMessageAt,
		LastMessageSenderID: r.LastMessageSenderID,
		UnreadCountCompany:  r.UnreadCountCompany,
		UnreadCountCustomer: r.UnreadCountCustomer,
		CreatedAt:           r.CreatedAt,
	}
}

// MessageToView конвертирует доменное сообщение в проводное представление.
func MessageToView(m *models.ChatMessage) MessageView {
	return MessageView{
		ID:          m.ID,
		ChatRoomID:  m.ChatRoomID,
		SenderID:    m.SenderID,
		SenderType:  string(m.SenderType),
		Content:     m.Content,
		ContentType: m.ContentType,
		CreatedAt:   m.CreatedAt,
		IsRead:      m.IsRead,
	}
}

// Rooms возвращает диалоги, видимые пользователю:
// customer — свои, company_admin — своей компании, superadmin — компании
// из companyID (обязателен).
func (s *Service) Rooms(ctx context.Context, p Principal, companyID uuid.UUID) ([]models.ChatRoom, error) {
	const op = "service.chat.Rooms"

	switch p.Role {
	case models.RoleCustomer:
		rooms, err := s.chats.RoomsByCustomer(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return rooms, nil

	case models.RoleCompanyAdmin:
		rooms, err := s.chats.RoomsByCompany(ctx, p.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return rooms, nil

	case models.RoleSuperadmin:
		if companyID == uuid.Nil {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		rooms, err := s.chats.RoomsByCompany(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return rooms, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrRoomAccessDenied)
}

// CreateRoom создаёт диалог клиента с компанией.
// Комнату открывает клиент; администраторы отвечают в уже существующих.
func (s *Service) CreateRoom(ctx context.Context, p Principal, companyID uuid.UUID, bookingID string) (*models.ChatRoom, error) {
	const op = "service.chat.CreateRoom"

	if p.Role != models.RoleCustomer {
		return nil, fmt.Errorf("%s: %w", op, ErrRoomAccessDenied)
	}

	if companyID == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	user, err := s.storage.UserByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	room, err := s.chats.CreateRoom(ctx, models.ChatRoom{
		CustomerID:   p.UserID,
		CustomerName: user.Name,
		CompanyID:    companyID,
		BookingID:    strings.TrimSpace(bookingID),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	event := RoomCreatedEvent{Room: RoomToView(room)}
	s.publish(realtime.EventChatRoomCreated, event, room.CustomerID)
	s.publishCompany(realtime.EventChatRoomCreated, event, room.CompanyID)

	return room, nil
}

// History отдаёт страницу истории диалога (created_at DESC).
func (s *Service) History(ctx context.Context, p Principal, roomID string, params models.ListParams) (*models.MessagePage, error) {
	const op = "service.chat.History"

	if _, _, err := s.roomForPrincipal(ctx, p, roomID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if params.PageSize <= 0 {
		params.PageSize = s.chatCfg.PageSizeDefault
	}
	if params.PageSize > s.chatCfg.PageSizeMax {
		params.PageSize = s.chatCfg.PageSizeMax
	}

	page, err := s.chats.ListMessages(ctx, roomID, params)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCursor) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// SendMessage сохраняет сообщение и рассылает new_message/unread_counts
// обеим сторонам диалога.
func (s *Service) SendMessage(ctx context.Context, p Principal, roomID, content, contentType string) (*models.ChatMessage, error) {
	const op = "service.chat.SendMessage"

	room, senderType, err := s.roomForPrincipal(ctx, p, roomID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyContent)
	}
	if utf8.RuneCountInString(content) > s.chatCfg.MaxMessageLen {
		return nil, fmt.Errorf("%s: %w", op, ErrContentTooLong)
	}

	if contentType == "" {
		contentType = models.ContentTypeText
	}
	if contentType != models.ContentTypeText {
		return nil, fmt.Errorf("%s: %w", op, ErrUnsupportedContentType)
	}

	msg, err := s.chats.SaveMessage(ctx, models.ChatMessage{
		ChatRoomID:  room.ID,
		SenderID:    p.UserID,
		SenderType:  senderType,
		Content:     content,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.fanoutMessage(ctx, room, msg)

	return msg, nil
}

// MarkRead помечает сообщения собеседника прочитанными и уведомляет обе
// стороны (messages_read + unread_counts). Возвращает число затронутых
// сообщений.
func (s *Service) MarkRead(ctx context.Context, p Principal, roomID string) (int64, error) {
	const op = "service.chat.MarkRead"

	room, senderType, err := s.roomForPrincipal(ctx, p, roomID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	readAt := time.Now().UTC()

	count, err := s.chats.MarkRead(ctx, room.ID, senderType, readAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	read := MessagesReadEvent{
		ChatRoomID: room.ID,
		ReaderID:   p.UserID,
		ReadAt:     readAt,
		Count:      count,
	}
	s.publish(realtime.EventMessagesRead, read, room.CustomerID)
	s.publishCompany(realtime.EventMessagesRead, read, room.CompanyID)

	s.fanoutUnread(ctx, room.ID)

	return count, nil
}

// Typing транслирует индикатор набора текста собеседнику.
func (s *Service) Typing(ctx context.Context, p Principal, roomID string, isTyping bool) error {
	const op = "service.chat.Typing"

	room, senderType, err := s.roomForPrincipal(ctx, p, roomID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	event := TypingEvent{
		ChatRoomID: room.ID,
		UserID:     p.UserID,
		IsTyping:   isTyping,
	}

	// Индикатор виден только противоположной стороне.
	if senderType == models.SenderCustomer {
		s.publishCompany(realtime.EventUserTyping, event, room.CompanyID)
	} else {
		s.publish(realtime.EventUserTyping, event, room.CustomerID)
	}

	return nil
}

// roomForPrincipal загружает комнату и проверяет, что пользователь —
// её сторона. Возвращает тип отправителя для этого пользователя.
func (s *Service) roomForPrincipal(ctx context.Context, p Principal, roomID string) (*models.ChatRoom, models.SenderType, error) {
	const op = "service.chat.roomForPrincipal"

	room, err := s.chats.RoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrRoomNotFound)
		}

		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	switch p.Role {
	case models.RoleCustomer:
		if room.CustomerID != p.UserID {
			return nil, "", fmt.Errorf("%s: %w", op, ErrRoomAccessDenied)
		}
		return room, models.SenderCustomer, nil

	case models.RoleCompanyAdmin:
		if room.CompanyID != p.CompanyID {
			return nil, "", fmt.Errorf("%s: %w", op, ErrRoomAccessDenied)
		}
		return room, models.SenderCompanyAdmin, nil

	case models.RoleSuperadmin:
		return room, models.SenderCompanyAdmin, nil
	}

	return nil, "", fmt.Errorf("%s: %w", op, ErrRoomAccessDenied)
}

// fanoutMessage рассылает new_message и свежие счётчики обеим сторонам.
func (s *Service) fanoutMessage(ctx context.Context, room *models.ChatRoom, msg *models.ChatMessage) {
	event := NewMessageEvent{
		ChatRoomID: room.ID,
		Message:    MessageToView(msg),
	}

	s.publish(realtime.EventNewMessage, event, room.CustomerID)
	s.publishCompany(realtime.EventNewMessage, event, room.CompanyID)

	s.fanoutUnread(ctx, room.ID)
}

// fanoutUnread перечитывает комнату и рассылает unread_counts.
// Счётчики меняются в хранилище, поэтому после записи их нужно перечитать.
func (s *Service) fanoutUnread(ctx context.Context, roomID string) {
	room, err := s.chats.RoomByID(ctx, roomID)
	if err != nil {
		return
	}

	event := UnreadCountsEvent{
		ChatRoomID:          room.ID,
		UnreadCountCompany:  room.UnreadCountCompany,
		UnreadCountCustomer: room.UnreadCountCustomer,
	}

	s.publish(realtime.EventUnreadCounts, event, room.CustomerID)
	s.publishCompany(realtime.EventUnreadCounts, event, room.CompanyID)
}
