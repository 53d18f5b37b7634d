package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification — элемент ленты уведомлений пользователя.
// Лента хранится в Redis: ограничена по количеству, дедуплицируется по ID,
// живёт не дольше настроенного TTL.
type Notification struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
