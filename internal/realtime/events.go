// realtime — единый двунаправленный канал событий поверх WebSocket.
//
// Hub — явный менеджер соединений: он создаётся в main и передаётся
// потребителям по ссылке; никакого глобального синглтона нет. Потребитель
// получает/освобождает подписку (Client), а не закрывает общий канал.
package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

// События сервер -> клиент.
const (
	EventNewMessage      = "new_message"
	EventUserTyping      = "user_typing"
	EventMessagesRead    = "messages_read"
	EventUnreadCounts    = "unread_counts"
	EventChatRoomCreated = "chat_room_created"
	EventNotification    = "notification"
)

// События клиент -> сервер.
const (
	EventSendMessage  = "send_message"
	EventTypingStatus = "typing_status"
	EventMarkRead     = "mark_read"
)

// Envelope — проводной формат события: имя + произвольный JSON-payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload — входящий send_message.
type SendMessagePayload struct {
	ChatRoomID  string `json:"chat_room_id"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// TypingStatusPayload — входящий typing_status.
type TypingStatusPayload struct {
	ChatRoomID string `json:"chat_room_id"`
	IsTyping   bool   `json:"is_typing"`
}

// MarkReadPayload — входящий mark_read.
type MarkReadPayload struct {
	ChatRoomID string `json:"chat_room_id"`
}

// Identity — кто стоит за соединением; заполняется при апгрейде
// из access-токена и не обновляется до конца жизни соединения.
type Identity struct {
	UserID    uuid.UUID
	Name      string
	Role      string
	CompanyID uuid.UUID
}
