package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/homeserve-admin/internal/cache"
	"github.com/pribylovaa/homeserve-admin/internal/config"
	adminhttp "github.com/pribylovaa/homeserve-admin/internal/http"
	"github.com/pribylovaa/homeserve-admin/internal/http/handlers"
	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	"github.com/pribylovaa/homeserve-admin/internal/notify"
	"github.com/pribylovaa/homeserve-admin/internal/realtime"
	"github.com/pribylovaa/homeserve-admin/internal/service"
	"github.com/pribylovaa/homeserve-admin/internal/storage/mongo"
	"github.com/pribylovaa/homeserve-admin/internal/storage/postgres"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting admin-api", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer store.Close()
	log.Info("postgres_connected")

	mongoCtx, mongoCancel := context.WithTimeout(rootCtx, 10*time.Second)
	chats, err := mongo.New(mongoCtx, cfg.Mongo.URL)
	mongoCancel()
	if err != nil {
		log.Error("mongo_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := chats.Close(closeCtx); cerr != nil {
			log.Warn("mongo_close_failed", slog.String("err", cerr.Error()))
		}
	}()
	log.Info("mongo_connected")

	svc := service.New(store, chats, cfg.Auth, cfg.Chat)

	if cfg.Redis.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.RedisURL)
		if err != nil {
			log.Error("redis_url_invalid", slog.String("err", err.Error()))
			os.Exit(1)
		}

		rdb := redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(rootCtx, 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Warn("redis_close_failed", slog.String("err", cerr.Error()))
			}
		}()
		log.Info("redis_connected")

		svc.SetRefreshCache(cache.NewRedisCache(rdb, ""))
		svc.SetFeed(notify.NewRedisFeed(rdb, notify.Limits{
			MaxItems: cfg.Notifications.MaxItems,
			TTL:      cfg.Notifications.TTL,
		}))
	} else {
		log.Warn("redis_disabled")
	}

	hub := realtime.NewHub(log, svc)
	svc.SetEvents(hub)
	go hub.Run(rootCtx)

	// Фоновая уборка просроченных refresh-токенов.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				cleanCtx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
				if err := store.DeleteExpiredTokens(cleanCtx, time.Now().UTC()); err != nil {
					log.Warn("expired_tokens_cleanup_failed", slog.String("err", err.Error()))
				}
				cancel()
			}
		}
	}()

	log.Info("service_initialized")

	cookies := session.CookieOptions{
		Domain: cfg.Auth.CookieDomain,
		Secure: cfg.Env == envProd,
	}

	h := handlers.New(svc, hub, cookies)
	apiHandler := adminhttp.NewRouter(h, adminhttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
		Cookies: cookies,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("admin_api_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
