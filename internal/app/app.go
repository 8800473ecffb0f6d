package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cellendar/internal/auth"
	"cellendar/internal/blob"
	blobfs "cellendar/internal/blob/fs"
	blobs3 "cellendar/internal/blob/s3"
	"cellendar/internal/cache"
	"cellendar/internal/cache/memory"
	"cellendar/internal/cache/rediscache"
	"cellendar/internal/config"
	"cellendar/internal/handlers"
	"cellendar/internal/logger"
	"cellendar/internal/metrics"
	notifiermem "cellendar/internal/notifier/inmemory"
	"cellendar/internal/notifier/sqlite"
	"cellendar/internal/reminder"
	"cellendar/internal/repository/inmemory"
	"cellendar/internal/repository/postgres"
	"cellendar/internal/service"
	"cellendar/internal/worker"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// storage одно хранилище обслуживает все репозитории сервиса.
type storage interface {
	service.CultureRepository
	service.TaskRepository
	service.SettingsRepository
	service.DataRepository
	auth.UserRepository
	HealthCheck(ctx context.Context) error
	Close()
}

type notifierStore interface {
	reminder.Notifier
	worker.Queue
	Close() error
}

var (
	_ storage       = (*inmemory.Storage)(nil)
	_ storage       = (*postgres.Storage)(nil)
	_ notifierStore = (*notifiermem.Store)(nil)
	_ notifierStore = (*sqlite.Store)(nil)
)

type services struct {
	auth         *service.AuthService
	cultures     *service.CultureService
	tasks        *service.TaskService
	notification *service.NotificationService
	data         *service.DataService
}

type App struct {
	config    *config.Config
	server    *http.Server
	handler   http.Handler
	storage   storage
	notifier  notifierStore
	metrics   *metrics.Metrics
	worker    *worker.NotificationWorker
	health    map[string]handlers.HealthChecker
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		health:    make(map[string]handlers.HealthChecker),
		shutdowns: make([]func(), 0),
	}
}

// Init собирает все зависимости по конфигу. При ошибке уже открытое закрывается.
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(logger.Options{
		Development: a.config.Logging.Development,
		File:        a.config.Logging.File,
		MaxSizeMB:   a.config.Logging.MaxSizeMB,
		MaxBackups:  a.config.Logging.MaxBackups,
		MaxAgeDays:  a.config.Logging.MaxAgeDays,
	}); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.init(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	loc, err := a.config.Location()
	if err != nil {
		return err
	}
	a.metrics = metrics.New()

	if err := a.initStorage(ctx); err != nil {
		return err
	}
	if err := a.initNotifier(ctx); err != nil {
		return err
	}
	settingsCache, err := a.initCache(ctx)
	if err != nil {
		return err
	}
	backups, err := a.initBackups(ctx)
	if err != nil {
		return err
	}

	opts := []service.Option{service.WithLocation(loc), service.WithMetrics(a.metrics)}
	settings := service.NewSettingsService(a.storage, settingsCache, opts...)
	scheduler := reminder.NewScheduler(a.notifier, settings, reminder.WithMetrics(a.metrics))
	provider := auth.NewJWTProvider(a.storage, a.config.Auth)

	svc := services{
		auth:         service.NewAuthService(provider),
		cultures:     service.NewCultureService(a.storage, a.storage, scheduler, opts...),
		tasks:        service.NewTaskService(a.storage, a.storage, scheduler, settings, opts...),
		notification: service.NewNotificationService(settings, a.storage, scheduler, opts...),
		data:         service.NewDataService(a.storage, settings, scheduler, backups, opts...),
	}

	a.worker = worker.NewNotificationWorker(a.notifier, worker.LogDeliverer{},
		worker.WithInterval(a.config.Notifications.PollInterval),
		worker.WithBatchSize(a.config.Notifications.BatchSize),
		worker.WithRetention(a.config.Notifications.Retention),
		worker.WithMetrics(a.metrics))

	a.handler = a.newRouter(svc, provider)
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.handler,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("App: Зависимости собраны",
		zap.String("repository", a.config.Repository.Type),
		zap.String("notifier", a.config.Notifications.Store),
		zap.String("cache", a.config.Cache.Type),
		zap.String("backup", a.config.Backup.Driver),
		zap.String("timezone", loc.String()))
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.config.Repository.Type {
	case "postgres":
		if a.config.Database.AutoMigrate {
			if err := postgres.Migrate(a.config.Database.URL, postgres.Up); err != nil {
				return fmt.Errorf("миграции: %w", err)
			}
		}
		st, err := postgres.New(ctx, a.config.Database)
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}
		a.storage = st
	default:
		a.storage = inmemory.New()
	}

	a.health["storage"] = a.storage
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие хранилища...")
		a.storage.Close()
	})
	return nil
}

func (a *App) initNotifier(ctx context.Context) error {
	switch a.config.Notifications.Store {
	case "sqlite":
		st, err := sqlite.New(ctx, a.config.Notifications.SQLitePath)
		if err != nil {
			return fmt.Errorf("хранилище уведомлений: %w", err)
		}
		a.notifier = st
		a.health["notifier"] = st
	default:
		a.notifier = notifiermem.New()
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие хранилища уведомлений...")
		if err := a.notifier.Close(); err != nil {
			logger.Error("App: Ошибка закрытия хранилища уведомлений", err)
		}
	})
	return nil
}

func (a *App) initCache(ctx context.Context) (cache.SettingsCache, error) {
	if a.config.Cache.Type != "redis" {
		return memory.New(a.config.Cache.TTL), nil
	}

	c, err := rediscache.New(ctx, a.config.Cache)
	if err != nil {
		return nil, err
	}
	a.health["cache"] = c
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие подключения к Redis...")
		if err := c.Close(); err != nil {
			logger.Error("App: Ошибка закрытия Redis", err)
		}
	})
	return c, nil
}

// initBackups nil без ошибки значит, что копии отключены.
func (a *App) initBackups(ctx context.Context) (blob.Store, error) {
	switch a.config.Backup.Driver {
	case "fs":
		st, err := blobfs.New(a.config.Backup.FSRoot)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "s3":
		st, err := blobs3.New(ctx, a.config.Backup)
		if err != nil {
			return nil, fmt.Errorf("хранилище бэкапов s3: %w", err)
		}
		return st, nil
	}
	return nil, nil
}

// Handler корневой обработчик со всеми middleware.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run блокируется до SIGINT/SIGTERM или отмены ctx, затем останавливает сервер и воркер.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http-сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: Остановка сервера...")

		timeout := a.config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка http-сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

// Shutdown вызывает зарегистрированные хуки в обратном порядке. Повторный вызов ничего не делает.
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
