// Package habittracker собирает приложение: выбирает хранилище и кеш по
// конфигу и создает сервисы пользователей, привычек и журнала.
package habittracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/habit-tracker/internal/cache"
	"github.com/magabrotheeeer/habit-tracker/internal/config"
	"github.com/magabrotheeeer/habit-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/habit-tracker/internal/http/router"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/habit-tracker/internal/migrations"
	"github.com/magabrotheeeer/habit-tracker/internal/services/habits"
	"github.com/magabrotheeeer/habit-tracker/internal/services/tracker"
	"github.com/magabrotheeeer/habit-tracker/internal/services/users"
	"github.com/magabrotheeeer/habit-tracker/internal/storage/memory"
	"github.com/magabrotheeeer/habit-tracker/internal/storage/postgresql"
)

// Store: хранилище, которое умеет всё, что нужно сервисам.
type Store interface {
	users.UserRepository
	habits.HabitRepository
	tracker.RecordRepository
	health.Pinger
	Close() error
}

// App держит сервисы и ресурсы, которые нужно закрыть.
type App struct {
	Users   *users.Service
	Habits  *habits.Service
	Tracker *tracker.Service
	Metrics *metrics.Metrics

	logger        *slog.Logger
	store         Store
	redis         *cache.Cache
	metricsServer *http.Server
}

// New открывает хранилище и кеш по конфигу. Для PostgreSQL перед началом
// работы применяются миграции.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "habittracker.New"

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		Metrics: metrics.New(),
		logger:  logger,
		store:   store,
	}

	var habitCache habits.Cache = cache.Noop{}
	if cfg.AddressRedis != "" {
		redis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.redis = redis
		habitCache = redis
		logger.Debug("habit cache enabled", slog.String("address", cfg.AddressRedis))
	}

	app.Habits = habits.NewService(store, habitCache, cfg.TTL, nil, app.Metrics, logger)
	app.Users = users.NewService(store, app.Habits, app.Metrics, logger)
	app.Tracker = tracker.NewService(store, store, nil, app.Metrics, logger)

	if cfg.MetricsAddress != "" {
		app.serveMetrics(cfg.MetricsAddress)
	}
	return app, nil
}

// Migrate применяет миграции к базе из конфига.
func Migrate(ctx context.Context, cfg *config.Config) error {
	const op = "habittracker.Migrate"
	if cfg.Driver != config.DriverPostgres {
		return fmt.Errorf("%s: migrations require driver %q, got %q", op, config.DriverPostgres, cfg.Driver)
	}
	db, err := postgresql.New(ctx, cfg.ConnectionString)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Debug("using in-memory storage")
		return memory.New(), nil
	case config.DriverPostgres:
		db, err := postgresql.New(ctx, cfg.ConnectionString)
		if err != nil {
			return nil, err
		}
		if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, err
		}
		if err = postgresql.CheckDatabaseReady(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Debug("using postgres storage")
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *App) serveMetrics(addr string) {
	a.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           router.New(a.logger, a.Metrics, a.store),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("ops server starting on", slog.String("address", addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("ops server stopped", sl.Err(err))
		}
	}()
}

// Close останавливает сервер метрик и закрывает кеш и хранилище.
func (a *App) Close() error {
	var errs []error
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.metricsServer.Shutdown(ctx))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
