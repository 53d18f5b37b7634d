// cache — Redis-кэш состояния refresh-токенов.
//
// Кэш стоит перед Postgres на горячем пути проверки refresh-токена:
// заведомо отозванный или истёкший токен отбрасывается без похода в БД,
// успешная ротация прогревает запись заново. Кэш опционален — сервис
// работает и без него.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RefreshEntry описывает данные, которые мы храним в Redis по хэшу refresh-токена.
type RefreshEntry struct {
	UserID    uuid.UUID
	Revoked   bool
	ExpiresAt time.Time
}

// RefreshCache — минимальный контракт кэша refresh-токенов.
type RefreshCache interface {
	// Get возвращает запись и признак её наличия в кэше.
	Get(ctx context.Context, hash string) (*RefreshEntry, bool, error)
	// Set сохраняет запись с TTL (обычно ExpiresAt-now).
	Set(ctx context.Context, hash string, e *RefreshEntry, ttl time.Duration) error
	// MarkRevoked помечает запись отозванной, сохраняя остаточный TTL.
	MarkRevoked(ctx context.Context, hash string) error
	// Close закрывает клиент Redis.
	Close() error
}

// Запись хранится одним JSON-значением; TTL живёт на самом ключе.
type entryDoc struct {
	UserID  string `json:"uid"`
	Revoked bool   `json:"rev"`
	ExpUnix int64  `json:"exp"`
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт кэш поверх готового клиента Redis.
// Пустой prefix заменяется на "auth:rt:".
func NewRedisCache(rdb *redis.Client, prefix string) RefreshCache {
	if prefix == "" {
		prefix = "auth:rt:"
	}

	return &redisCache{rdb: rdb, prefix: prefix}
}

func (c *redisCache) key(hash string) string { return c.prefix + hash }

func (c *redisCache) Get(ctx context.Context, hash string) (*RefreshEntry, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var doc entryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, err
	}

	uid, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, false, err
	}

	return &RefreshEntry{
		UserID:    uid,
		Revoked:   doc.Revoked,
		ExpiresAt: time.Unix(doc.ExpUnix, 0).UTC(),
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, hash string, e *RefreshEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entryDoc{
		UserID:  e.UserID.String(),
		Revoked: e.Revoked,
		ExpUnix: e.ExpiresAt.Unix(),
	})
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, c.key(hash), raw, ttl).Err()
}

// MarkRevoked перечитывает запись и переписывает её с rev=true.
// Отсутствующая запись — не ошибка: значит, кэш её уже вытеснил.
func (c *redisCache) MarkRevoked(ctx context.Context, hash string) error {
	raw, err := c.rdb.Get(ctx, c.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	var doc entryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	doc.Revoked = true

	raw, err = json.Marshal(doc)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, c.key(hash), raw, redis.KeepTTL).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
