package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/pkg/log"
)

// RegisterDevice регистрирует устройство пользователя для push-уведомлений.
// Повторная регистрация с неизменившимся push-токеном не трогает запись;
// возвращаемый флаг сообщает, была ли запись создана или обновлена.
func (s *Service) RegisterDevice(ctx context.Context, p Principal, deviceID, pushToken, platform string) (bool, error) {
	const op = "service.devices.RegisterDevice"

	deviceID = strings.TrimSpace(deviceID)
	pushToken = strings.TrimSpace(pushToken)
	platform = strings.TrimSpace(platform)

	if deviceID == "" || pushToken == "" {
		return false, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	changed, err := s.storage.UpsertDevice(ctx, &models.Device{
		UserID:    p.UserID,
		DeviceID:  deviceID,
		PushToken: pushToken,
		Platform:  platform,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if changed {
		log.From(ctx).Info("device_registered",
			slog.String("op", op),
			slog.String("user_id", p.UserID.String()),
			slog.String("device_id", deviceID),
		)
	}

	return changed, nil
}

// Devices возвращает зарегистрированные устройства пользователя.
func (s *Service) Devices(ctx context.Context, p Principal) ([]models.Device, error) {
	const op = "service.devices.Devices"

	devices, err := s.storage.DevicesByUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return devices, nil
}
