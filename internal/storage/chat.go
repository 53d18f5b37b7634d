package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/homeserve-admin/internal/models"
)

// ChatStorage выполняет операции над диалогами и сообщениями.
type ChatStorage interface {
	// CreateRoom создаёт диалог клиента с компанией.
	CreateRoom(ctx context.Context, room models.ChatRoom) (*models.ChatRoom, error)
	// RoomByID находит диалог по ID. Битый ID — ErrNotFound.
	RoomByID(ctx context.Context, id string) (*models.ChatRoom, error)
	// RoomsByCompany возвращает диалоги компании, свежая активность первой.
	RoomsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.ChatRoom, error)
	// RoomsByCustomer возвращает диалоги клиента, свежая активность первой.
	RoomsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.ChatRoom, error)

	// SaveMessage сохраняет сообщение и обновляет на комнате денормализованный
	// «хвост» (last_message*) и счётчик непрочитанного получателя.
	SaveMessage(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error)
	// ListMessages отдаёт страницу истории диалога: created_at DESC c keyset-курсором.
	// HasMore выставляется явно (выборка limit+1), а не выводится из размера страницы.
	ListMessages(ctx context.Context, roomID string, params models.ListParams) (*models.MessagePage, error)
	// MarkRead помечает прочитанными все сообщения собеседника до момента at
	// включительно и обнуляет счётчик непрочитанного читателя.
	// Возвращает количество затронутых сообщений.
	MarkRead(ctx context.Context, roomID string, reader models.SenderType, at time.Time) (int64, error)
}
