package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pribylovaa/homeserve-admin/internal/models"
)

// UpsertDevice регистрирует устройство либо обновляет его push-токен.
// Запись перезаписывается только когда push-токен отличается от сохранённого;
// в этом случае возвращается true. Совпадающий токен — no-op и false.
func (s *Storage) UpsertDevice(ctx context.Context, device *models.Device) (bool, error) {
	const op = "storage.postgres.UpsertDevice"

	query := `
		INSERT INTO devices(user_id, device_id, push_token, platform, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, device_id) DO UPDATE
		SET push_token = EXCLUDED.push_token,
		    platform = EXCLUDED.platform,
		    updated_at = EXCLUDED.updated_at
		WHERE devices.push_token IS DISTINCT FROM EXCLUDED.push_token
	`

	tag, err := s.db.Exec(ctx, query,
		device.UserID,
		device.DeviceID,
		device.PushToken,
		device.Platform,
		device.UpdatedAt,
	)

	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected() > 0, nil
}

// DevicesByUser возвращает устройства пользователя.
func (s *Storage) DevicesByUser(ctx context.Context, userID uuid.UUID) ([]models.Device, error) {
	const op = "storage.postgres.DevicesByUser"

	query := `
		SELECT user_id, device_id, push_token, platform, updated_at
		FROM devices
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.UserID, &d.DeviceID, &d.PushToken, &d.Platform, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return devices, nil
}
