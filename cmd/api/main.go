package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-intake/internal/api/http"
	"github.com/spec-kit/civic-intake/internal/api/http/handlers"
	"github.com/spec-kit/civic-intake/internal/auth"
	"github.com/spec-kit/civic-intake/internal/classifier"
	"github.com/spec-kit/civic-intake/internal/config"
	"github.com/spec-kit/civic-intake/internal/events"
	"github.com/spec-kit/civic-intake/internal/notify"
	"github.com/spec-kit/civic-intake/internal/observability"
	"github.com/spec-kit/civic-intake/internal/persistence"
	"github.com/spec-kit/civic-intake/internal/repository"
	"github.com/spec-kit/civic-intake/internal/service"
	"github.com/spec-kit/civic-intake/internal/storage"
	"github.com/spec-kit/civic-intake/internal/worker"
)

type stores struct {
	issues repository.IssueRepository
	users  repository.UserRepository
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer st.close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	departments, err := repository.LoadDepartmentRepository(cfg.Notification.DepartmentsFile)
	if err != nil {
		logger.Fatal("failed to load departments", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewAsyncDispatcher(cfg.Notification.QueueSize, logger)

	var guard service.SubmissionGuard = service.NewNoopGuard()
	var redisPinger handlers.Pinger
	if redis != nil {
		guard = service.NewRedisGuard(redis.Client, cfg.Redis.LockTTL(), logger)
		redisPinger = redis
	}

	var primary classifier.Classifier
	if cfg.Classifier.URL != "" {
		primary = classifier.NewRemoteClassifier(cfg.Classifier.URL, cfg.Classifier.Timeout())
	}

	var photos service.PhotoStore
	if cfg.Photos.Enabled() {
		store, err := storage.NewPhotoStore(ctx, cfg.Photos, logger)
		if err != nil {
			logger.Fatal("failed to init photo storage", zap.Error(err))
		}
		photos = store
	} else {
		logger.Info("photo storage not configured; uploads disabled")
	}

	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:  st.issues,
		Classifier: primary,
		Dispatcher: dispatcher,
		Guard:      guard,
		Photos:     photos,
		Metrics:    metrics,
		Logger:     logger,
	})

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:       st.users,
		DepartmentRepo: departments,
		Logger:         logger,
	})
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("failed to bootstrap admin account", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), st.users)

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:  dispatcher,
		SMS:         notify.NewTelerivetClient(cfg.SMS, logger),
		Email:       notify.NewLogEmailSender(cfg.Notification, logger),
		Departments: departments,
		Logger:      logger,
	})
	workerCtx, stopWorkers := context.WithCancel(ctx)
	notificationsDone := worker.StartNotificationWorker(workerCtx, dispatcher, notificationService)

	reminders := worker.NewReminderWorker(issueService, cfg.Reminder.Cron, logger)
	if err := reminders.Start(workerCtx); err != nil {
		logger.Fatal("failed to schedule reminders", zap.Error(err))
	}

	app := fiber.New(fiber.Config{BodyLimit: cfg.Photos.MaxBytes + 1024*1024})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, issueService, redisPinger, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		SMS:            handlers.NewSMSHandler(issueService, cfg.SMS.WebhookSecret, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)
	reminders.Stop()
	stopWorkers()
	select {
	case <-notificationsDone:
	case <-time.After(10 * time.Second):
		logger.Warn("notification queue not drained before shutdown")
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		pool := pg.PoolHandle()
		return &stores{
			issues: repository.NewIssueRepository(pool),
			users:  repository.NewUserRepository(pool),
			close:  pg.Close,
		}, nil
	case config.StoreBackendSQLite:
		db, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		return &stores{
			issues: repository.NewSQLiteIssueRepository(db.DB),
			users:  repository.NewSQLiteUserRepository(db.DB),
			close:  db.Close,
		}, nil
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		return &stores{
			issues: repository.NewMemoryIssueRepository(),
			users:  repository.NewMemoryUserRepository(),
			close:  func() {},
		}, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
