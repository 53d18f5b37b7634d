// storage задаёт контракты хранилищ admin-api и общие ошибки-сентинелы.
//
// Реляционная часть (пользователи, refresh-токены, устройства) живёт в
// PostgreSQL (storage/postgres), чаты — в MongoDB (storage/mongo).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/homeserve-admin/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен/комната).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/refresh-token).
	ErrAlreadyExists = errors.New("already exists")
	// ErrExpired — сущность просрочена (refresh-token).
	ErrExpired = errors.New("expired")
	// ErrRevoked — сущность отозвана (refresh-token).
	ErrRevoked = errors.New("revoked")
	// ErrInvalidCursor — битый page_token постраничной выдачи.
	ErrInvalidCursor = errors.New("invalid cursor")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт пользователя; дубликат email — ErrAlreadyExists.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail ищет пользователя по email (регистр не учитывается).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID ищет пользователя по его идентификатору.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет выданный refresh-токен.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByHash ищет refresh-токен по sha256-хэшу секрета.
	RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	// RevokeRefreshTokenIfActive пытается отозвать refresh-токен, если он
	// ещё не был отозван: (true, nil) — отозван сейчас; (false, nil) — уже
	// был отозван; (false, ErrNotFound) — не найден.
	RevokeRefreshTokenIfActive(ctx context.Context, hash string) (bool, error)
	// DeleteExpiredTokens вычищает просроченные токены.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// DeviceStorage выполняет операции над устройствами для push-уведомлений.
type DeviceStorage interface {
	// UpsertDevice регистрирует устройство либо обновляет push-токен.
	// Возвращает true, если запись была создана или изменена, и false,
	// если сохранённый push-токен уже совпадает с переданным.
	UpsertDevice(ctx context.Context, device *models.Device) (bool, error)
	// DevicesByUser возвращает устройства пользователя.
	DevicesByUser(ctx context.Context, userID uuid.UUID) ([]models.Device, error)
}

// Storage задаёт контракт работы с реляционной БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	DeviceStorage
	Close()
}
