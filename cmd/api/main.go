package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/grievance-service/internal/api/http"
	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/classifier"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/embedding"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/llm"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/persistence"
	"github.com/spec-kit/grievance-service/internal/relevance"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/service"
	"github.com/spec-kit/grievance-service/internal/storage"
	"github.com/spec-kit/grievance-service/internal/worker"
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

	shutdownTracing, err := observability.InitTracing(ctx, logger, cfg.App, cfg.Telemetry)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	metrics := observability.NewMetrics()

	departmentNames, err := cfg.Departments.LoadDepartments()
	if err != nil {
		logger.Fatal("failed to load department catalog", zap.Error(err))
	}
	departmentNames = withDefaultDepartment(departmentNames)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.Pool
	userRepo := repository.NewUserRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	seeded, err := departmentRepo.EnsureSeeded(ctx, departmentNames)
	if err != nil {
		logger.Fatal("failed to seed departments", zap.Error(err))
	}
	logger.Info("departments ready", zap.Int("inserted", seeded), zap.Int("catalog", len(departmentNames)))

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init blob store", zap.Error(err))
	}
	if closer, ok := blobs.(io.Closer); ok {
		defer closer.Close() //nolint:errcheck
	}

	generator, err := llm.NewAnthropicClient(llm.Options{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		MaxTokens:         cfg.LLM.MaxTokens,
		Timeout:           cfg.LLM.Timeout(),
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		MaxRetries:        2,
	})
	if err != nil {
		logger.Fatal("failed to init llm client", zap.Error(err))
	}

	embedder, err := embedding.New(embedding.Options{
		BaseURL:           cfg.Embedding.BaseURL,
		APIKey:            cfg.Embedding.APIKey,
		Model:             cfg.Embedding.Model,
		Timeout:           cfg.Embedding.Timeout(),
		MaxRetries:        2,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})
	if err != nil {
		logger.Fatal("failed to init embedding client", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	sessions := auth.NewRedisSessionStore(redis.Client)
	tokens := auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL())

	authService := service.NewAuthService(service.AuthDependencies{
		AdminRepo:      adminRepo,
		DepartmentRepo: departmentRepo,
		Sessions:       sessions,
		Tokens:         tokens,
		BcryptCost:     cfg.Auth.BcryptCost,
		Logger:         logger,
	})
	created, err := authService.EnsureBootstrapAdmin(ctx, cfg.Auth.SeedAdminUsername, cfg.Auth.SeedAdminPassword, cfg.Auth.SeedAdminDept)
	if err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}
	if created {
		logger.Info("bootstrap admin created", zap.String("username", cfg.Auth.SeedAdminUsername))
	}

	intakeService := service.NewIntakeService(service.IntakeDependencies{
		UserRepo:       userRepo,
		DepartmentRepo: departmentRepo,
		ComplaintRepo:  complaintRepo,
		Classifier:     classifier.New(generator, departmentNames, logger, metrics),
		Scorer:         relevance.NewScorer(embedder, cfg.Embedding.Threshold, logger, metrics,
			relevance.WithMaxPixels(cfg.Embedding.MaxImagePixels)),
		Tickets:        service.NewTicketAllocator(),
		Blobs:          blobs,
		Dispatcher:     dispatcher,
		Logger:         logger,
		Metrics:        metrics,
	})
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo:  complaintRepo,
		DepartmentRepo: departmentRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	chatService := service.NewChatService(generator, departmentNames, logger, metrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitMB * 1024 * 1024,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Complaints: handlers.NewComplaintsHandler(intakeService, complaintService),
		Admin: handlers.NewAdminHandler(authService, complaintService, handlers.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		}),
		Chat:              handlers.NewChatHandler(chatService),
		Uploads:           handlers.NewUploadsHandler(blobs, logger),
		SessionMiddleware: auth.NewSessionMiddleware(tokens, sessions, cfg.Auth.CookieName, logger),
		Metrics:           metrics.Handler(),
		MetricsPath:       cfg.Telemetry.MetricsPath,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

// withDefaultDepartment makes sure the fallback department is always seeded.
func withDefaultDepartment(names []string) []string {
	for _, name := range names {
		if name == domain.DefaultDepartmentName {
			return names
		}
	}
	return append([]string{domain.DefaultDepartmentName}, names...)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
