package models

import (
	"time"

	"github.com/google/uuid"
)

// Device — зарегистрированное устройство для push-уведомлений.
// Пара (user_id, device_id) уникальна; повторная регистрация с тем же
// push-токеном не изменяет запись.
type Device struct {
	UserID    uuid.UUID
	DeviceID  string
	PushToken string
	Platform  string
	UpdatedAt time.Time
}
