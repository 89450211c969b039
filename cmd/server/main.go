package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/cirrus/internal/api"
	"github.com/neexbeast/cirrus/internal/cooldown"
	"github.com/neexbeast/cirrus/internal/delivery"
	"github.com/neexbeast/cirrus/internal/logging"
	"github.com/neexbeast/cirrus/internal/report"
	"github.com/neexbeast/cirrus/internal/scheduler"
	"github.com/neexbeast/cirrus/internal/settings"
	"github.com/neexbeast/cirrus/internal/storage"
	"github.com/neexbeast/cirrus/internal/weather"
)

func main() {
	_ = godotenv.Load()

	log := logging.New(getEnv("APP_ENV", "prod"))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	botToken := mustEnv("BOT_TOKEN")
	weatherKey := mustEnv("OPENWEATHER_API_KEY")
	nasaKey := mustEnv("NASA_API_KEY")
	bearerToken := mustEnv("BEARER_TOKEN")
	port := getEnv("PORT", "8080")

	ctx := context.Background()

	// Station settings persist to Postgres when DATABASE_URL is set,
	// otherwise to a local JSON file.
	var (
		persister settings.Persister
		dbPinger  api.Pinger
	)
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pool, err := storage.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := storage.RunMigrations(ctx, pool, "migrations"); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied")

		persister = storage.NewRepository(pool)
		dbPinger = &pgxPoolPinger{pool: pool}
	} else {
		path := getEnv("SETTINGS_FILE", "user_settings.json")
		persister = settings.NewFileStore(path)
		log.Info("using file-backed settings", "path", path)
	}

	// Command cooldowns live in Redis when REDIS_URL is set; without it
	// the atmosphere endpoint is simply not throttled per user.
	var (
		limiter     api.CooldownLimiter
		redisPinger api.Pinger
	)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisClient, err := cooldown.Connect(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		limiter = cooldown.NewLimiter(redisClient)
		redisPinger = &redisPingerAdapter{client: redisClient}
	} else {
		log.Info("no REDIS_URL set, command cooldowns disabled")
	}

	store := settings.NewStore(persister, log)
	store.Load(ctx)
	log.Info("station settings loaded", "stations", store.Count())

	svc := weather.NewService(weather.NewClient(weatherKey), weather.NewAPODClient(nasaKey))
	generator := report.NewGenerator(svc, svc, log)
	sender := delivery.NewClient(botToken)

	sched := scheduler.New(store, generator, sender, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	handlers := api.NewHandlers(store, svc, generator, limiter, log)
	router := api.NewRouter(handlers, bearerToken, dbPinger, redisPinger, log)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// pgxPoolPinger adapts pgxpool.Pool to the api.Pinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the api.Pinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
