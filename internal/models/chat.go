package models

import (
	"time"

	"github.com/google/uuid"
)

// SenderType — кто отправил сообщение в чате.
type SenderType string

const (
	SenderCustomer     SenderType = "customer"
	SenderCompanyAdmin SenderType = "company_admin"
)

// Valid сообщает, известен ли тип отправителя.
func (s SenderType) Valid() bool {
	return s == SenderCustomer || s == SenderCompanyAdmin
}

// ContentTypeText — пока единственный поддерживаемый тип контента.
const ContentTypeText = "text"

// ChatRoom — диалог клиента с компанией, опционально привязанный к заказу.
//
// Важно:
//   - ID — ObjectID MongoDB, наружу конвертируется в string;
//   - CustomerID/CompanyID — UUID учётных записей;
//   - Last* — денормализованный «хвост» для списка диалогов, обновляется
//     при каждом новом сообщении;
//   - UnreadCount* — счётчики непрочитанного для каждой из сторон.
type ChatRoom struct {
	ID                  string
	CustomerID          uuid.UUID
	CustomerName        string
	CompanyID           uuid.UUID
	BookingID           string
	LastMessage         string
	LastMessageAt       time.Time
	LastMessageSenderID uuid.UUID
	UnreadCountCompany  int64
	UnreadCountCustomer int64
	CreatedAt           time.Time
}

// ChatMessage — сообщение в диалоге (MongoDB).
// Клиент держит только кэш-копию; источником истины остаётся хранилище.
type ChatMessage struct {
	ID          string
	ChatRoomID  string
	SenderID    uuid.UUID
	SenderType  SenderType
	Content     string
	ContentType string
	CreatedAt   time.Time
	IsRead      bool
}

// ListParams — базовые параметры постраничной выдачи истории.
type ListParams struct {
	PageSize  int32
	PageToken string
}

// MessagePage — страница истории сообщений.
// HasMore — явный признак наличия более старых сообщений; выставляется
// хранилищем, а не выводится из размера страницы.
type MessagePage struct {
	Items         []ChatMessage
	NextPageToken string
	HasMore       bool
}
