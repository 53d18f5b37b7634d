// notify — лента уведомлений пользователя в Redis.
//
// Лента ограничена по количеству и TTL и дедуплицируется по ID:
// повторно доставленное push-уведомление не создаёт дубликата.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/homeserve-admin/internal/models"
)

// FeedStore — контракт ленты уведомлений.
type FeedStore interface {
	// List возвращает ленту пользователя, новые первыми.
	// Отсутствующий ключ — пустая лента, не ошибка.
	List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	// Add добавляет уведомление в начало ленты.
	// Возвращает false, если уведомление с таким ID уже есть (дубликат отброшен).
	Add(ctx context.Context, userID uuid.UUID, n models.Notification) (bool, error)
	// Clear очищает ленту пользователя.
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Limits — ограничения ленты.
type Limits struct {
	// MaxItems — максимальный размер ленты; старые элементы вытесняются.
	MaxItems int64
	// TTL — срок жизни ленты с момента последнего добавления.
	TTL time.Duration
}

type redisFeed struct {
	rdb    *redis.Client
	limits Limits
}

// NewRedisFeed создаёт ленту поверх готового клиента Redis.
func NewRedisFeed(rdb *redis.Client, limits Limits) FeedStore {
	if limits.MaxItems <= 0 {
		limits.MaxItems = 200
	}

	return &redisFeed{rdb: rdb, limits: limits}
}

// Ключи: zset id->created_at(unixnano) для порядка, hash id->json для данных.
func (f *redisFeed) zkey(userID uuid.UUID) string { return "notif:z:" + userID.String() }
func (f *redisFeed) hkey(userID uuid.UUID) string { return "notif:h:" + userID.String() }

// List возвращает ленту пользователя, новые первыми.
func (f *redisFeed) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	const op = "notify.redisFeed.List"

	ids, err := f.rdb.ZRevRange(ctx, f.zkey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(ids) == 0 {
		return []models.Notification{}, nil
	}

	raw, err := f.rdb.HMGet(ctx, f.hkey(userID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]models.Notification, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}

		var n models.Notification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			// Битую запись пропускаем, лента остаётся читаемой.
			continue
		}

		items = append(items, n)
	}

	return items, nil
}

// Add добавляет уведомление, отбрасывая дубликаты по ID и усекая ленту до MaxItems.
func (f *redisFeed) Add(ctx context.Context, userID uuid.UUID, n models.Notification) (bool, error) {
	const op = "notify.redisFeed.Add"

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	// Дедупликация по стабильному ID.
	_, err := f.rdb.ZScore(ctx, f.zkey(userID), n.ID).Result()
	if err == nil {
		return false, nil
	}
	if err != redis.Nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	pipe := f.rdb.TxPipeline()
	pipe.ZAdd(ctx, f.zkey(userID), redis.Z{Score: float64(n.CreatedAt.UnixNano()), Member: n.ID})
	pipe.HSet(ctx, f.hkey(userID), n.ID, payload)
	if f.limits.TTL > 0 {
		pipe.Expire(ctx, f.zkey(userID), f.limits.TTL)
		pipe.Expire(ctx, f.hkey(userID), f.limits.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := f.trim(ctx, userID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

// trim вытесняет самые старые элементы сверх MaxItems.
func (f *redisFeed) trim(ctx context.Context, userID uuid.UUID) error {
	count, err := f.rdb.ZCard(ctx, f.zkey(userID)).Result()
	if err != nil {
		return err
	}

	excess := count - f.limits.MaxItems
	if excess <= 0 {
		return nil
	}

	victims, err := f.rdb.ZRange(ctx, f.zkey(userID), 0, excess-1).Result()
	if err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}

	members := make([]interface{}, 0, len(victims))
	for _, v := range victims {
		members = append(members, v)
	}

	pipe := f.rdb.TxPipeline()
	pipe.ZRem(ctx, f.zkey(userID), members...)
	pipe.HDel(ctx, f.hkey(userID), victims...)
	_, err = pipe.Exec(ctx)

	return err
}

// Clear очищает ленту пользователя.
func (f *redisFeed) Clear(ctx context.Context, userID uuid.UUID) error {
	const op = "notify.redisFeed.Clear"

	if err := f.rdb.Del(ctx, f.zkey(userID), f.hkey(userID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
