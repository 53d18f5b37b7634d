package notify

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/homeserve-admin/internal/models"
)

// TestMain запускает Redis в контейнере один раз на весь пакет тестов.
// Адрес прокидывается в ENV REDIS_TEST_ADDR.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		_ = redisC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := redisC.MappedPort(ctx, "6379/tcp")
	if err != nil {
		_ = redisC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	_ = os.Setenv("REDIS_TEST_ADDR", fmt.Sprintf("%s:%s", host, port.Port()))

	code := m.Run()

	_ = redisC.Terminate(context.Background())
	os.Exit(code)
}

// mustNewFeed подключается к контейнеру; изоляция тестов достигается
// уникальным userID в каждом тесте.
func mustNewFeed(t *testing.T, limits Limits) FeedStore {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err(), "ping redis (REDIS_TEST_ADDR=%s)", addr)

	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisFeed(rdb, limits)
}

func notification(id, title string, at time.Time) models.Notification {
	return models.Notification{
		ID:        id,
		Title:     title,
		CreatedAt: at,
	}
}

func TestIntegration_Feed_EmptyList(t *testing.T) {
	f := mustNewFeed(t, Limits{})

	items, err := f.List(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestIntegration_Feed_Add_NewestFirst(t *testing.T) {
	f := mustNewFeed(t, Limits{})
	userID := uuid.New()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		added, err := f.Add(context.Background(), userID, notification(
			fmt.Sprintf("n-%d", i),
			fmt.Sprintf("title-%d", i),
			base.Add(time.Duration(i)*time.Second),
		))
		require.NoError(t, err)
		require.True(t, added)
	}

	items, err := f.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "n-2", items[0].ID)
	require.Equal(t, "n-1", items[1].ID)
	require.Equal(t, "n-0", items[2].ID)
	require.Equal(t, "title-2", items[0].Title)
}

func TestIntegration_Feed_Add_DuplicateDropped(t *testing.T) {
	f := mustNewFeed(t, Limits{})
	userID := uuid.New()

	n := notification("push-1", "first delivery", time.Now().UTC())

	added, err := f.Add(context.Background(), userID, n)
	require.NoError(t, err)
	require.True(t, added)

	// Повторная доставка того же push — дубликат отброшен.
	n.Title = "second delivery"
	added, err = f.Add(context.Background(), userID, n)
	require.NoError(t, err)
	require.False(t, added)

	items, err := f.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "first delivery", items[0].Title)
}

func TestIntegration_Feed_Trim_EvictsOldest(t *testing.T) {
	f := mustNewFeed(t, Limits{MaxItems: 3})
	userID := uuid.New()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		added, err := f.Add(context.Background(), userID, notification(
			fmt.Sprintf("n-%d", i),
			fmt.Sprintf("title-%d", i),
			base.Add(time.Duration(i)*time.Second),
		))
		require.NoError(t, err)
		require.True(t, added)
	}

	items, err := f.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// Остались три самых свежих.
	require.Equal(t, "n-4", items[0].ID)
	require.Equal(t, "n-3", items[1].ID)
	require.Equal(t, "n-2", items[2].ID)
}

func TestIntegration_Feed_Clear(t *testing.T) {
	f := mustNewFeed(t, Limits{})
	userID := uuid.New()

	_, err := f.Add(context.Background(), userID, notification("n-1", "hello", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, f.Clear(context.Background(), userID))

	items, err := f.List(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, items)

	// Очистка пустой ленты — не ошибка.
	require.NoError(t, f.Clear(context.Background(), userID))
}
