package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/realtime"
)

// Notifications возвращает ленту уведомлений пользователя, новые первыми.
// Без сконфигурированного Redis лента всегда пуста.
func (s *Service) Notifications(ctx context.Context, p Principal) ([]models.Notification, error) {
	const op = "service.notifications.Notifications"

	if s.feed == nil {
		return nil, nil
	}

	items, err := s.feed.List(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// AddNotification кладёт уведомление в ленту пользователя и, если оно новое,
// досылает его realtime-событием notification. Повторная доставка с тем же
// ID — no-op (false, nil).
func (s *Service) AddNotification(ctx context.Context, userID uuid.UUID, n models.Notification) (bool, error) {
	const op = "service.notifications.AddNotification"

	if strings.TrimSpace(n.Title) == "" {
		return false, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.UserID = userID

	if s.feed == nil {
		return false, nil
	}

	added, err := s.feed.Add(ctx, userID, n)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if added {
		s.publish(realtime.EventNotification, n, userID)
	}

	return added, nil
}

// ClearNotifications очищает ленту пользователя.
func (s *Service) ClearNotifications(ctx context.Context, p Principal) error {
	const op = "service.notifications.ClearNotifications"

	if s.feed == nil {
		return nil
	}

	if err := s.feed.Clear(ctx, p.UserID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
