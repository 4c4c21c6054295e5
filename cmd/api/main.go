package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civic-issue-service/internal/api/http"
	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/geocode"
	"github.com/spec-kit/civic-issue-service/internal/mailer"
	"github.com/spec-kit/civic-issue-service/internal/observability"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
	"github.com/spec-kit/civic-issue-service/internal/storage"
	"github.com/spec-kit/civic-issue-service/internal/worker"
)

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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	otpStore := repository.NewOTPStore(redis.Client, cfg.Auth.OTPTTL())

	geocoder := geocode.NewNominatimClient(cfg.Geocode, logger)

	imageStore, err := storage.NewMinioStore(ctx, cfg.Storage)
	if err != nil {
		logger.Warn("object storage unavailable, image uploads disabled", zap.Error(err))
		imageStore = nil
	}

	var mail mailer.Mailer
	if cfg.Email.Enabled {
		sesMailer, err := mailer.NewSESMailer(ctx, cfg.Email, logger)
		if err != nil {
			logger.Fatal("failed to init mailer", zap.Error(err))
		}
		mail = sesMailer
	} else {
		mail = mailer.NewNoopMailer(logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: userRepo,
		OTPStore: otpStore,
		Mailer:   mail,
		Logger:   logger,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:  issueRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		ImageStore: imageStoreOrNil(imageStore),
		Geocoder:   geocoder,
		StorageCfg: cfg.Storage,
		Logger:     logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo: commentRepo,
		IssueRepo:   issueRepo,
		Dispatcher:  dispatcher,
	})
	adminUserService := service.NewAdminUserService(userRepo)
	reportService := service.NewReportService(issueRepo, userRepo)
	notificationService := service.NewNotificationService(dispatcher, mail, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Storage.MaxImageBytes)*cfg.Storage.MaxImagesPerIssue + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		Comments:       handlers.NewCommentsHandler(commentService),
		AdminUsers:     handlers.NewAdminUsersHandler(adminUserService),
		Reports:        handlers.NewReportsHandler(reportService),
		Geo:            handlers.NewGeoHandler(geocoder),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// imageStoreOrNil keeps the ImageStore interface nil when the concrete store
// is nil, so the service can detect a disabled store.
func imageStoreOrNil(store *storage.MinioStore) storage.ImageStore {
	if store == nil {
		return nil
	}
	return store
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
