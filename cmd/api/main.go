package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/deskflow/ai-ticket-assistant/internal/api/http"
	"github.com/deskflow/ai-ticket-assistant/internal/api/http/handlers"
	"github.com/deskflow/ai-ticket-assistant/internal/ai"
	"github.com/deskflow/ai-ticket-assistant/internal/auth"
	"github.com/deskflow/ai-ticket-assistant/internal/config"
	"github.com/deskflow/ai-ticket-assistant/internal/events"
	"github.com/deskflow/ai-ticket-assistant/internal/mail"
	"github.com/deskflow/ai-ticket-assistant/internal/observability"
	"github.com/deskflow/ai-ticket-assistant/internal/persistence"
	"github.com/deskflow/ai-ticket-assistant/internal/repository"
	"github.com/deskflow/ai-ticket-assistant/internal/repository/memory"
	"github.com/deskflow/ai-ticket-assistant/internal/service"
	"github.com/deskflow/ai-ticket-assistant/internal/worker"
	"github.com/deskflow/ai-ticket-assistant/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.App.Name, cfg.Telemetry)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	var (
		userRepo   repository.UserRepository
		ticketRepo repository.TicketRepository
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.PoolHandle())
		ticketRepo = repository.NewTicketRepository(pg.PoolHandle())
	} else {
		store := memory.NewStore()
		userRepo, ticketRepo = store.Users(), store.Tickets()
	}

	metrics := observability.NewMetrics()

	var (
		dispatcher      events.Dispatcher
		redisDispatcher *events.RedisDispatcher
	)
	if cfg.Workflow.Queue == "redis" {
		redisDispatcher = events.NewRedisDispatcher(rdb.Client, logger, cfg.Workflow.Concurrency)
		dispatcher = redisDispatcher
	} else {
		dispatcher = events.NewInMemoryDispatcher(logger)
	}

	memo := workflow.NewMemoryMemoStore(cfg.Workflow.MemoTTL)
	if rdb.Enabled() {
		memo = workflow.NewRedisMemoStore(rdb.Client, cfg.Workflow.MemoTTL)
	}
	engine := workflow.NewEngine(dispatcher, memo, logger, workflow.Options{
		Concurrency:     cfg.Workflow.Concurrency,
		InitialInterval: cfg.Workflow.RetryBackoff,
		MaxInterval:     cfg.Workflow.RetryMaxDelay,
		Metrics:         metrics,
	})

	mailer, err := mail.NewMailer(cfg.Mail, logger)
	if err != nil {
		logger.Fatal("failed to init mailer", zap.Error(err))
	}
	if err := worker.StartTicketWorker(engine, worker.TicketWorkerDeps{
		Tickets:       ticketRepo,
		Enricher:      ai.NewEnricher(cfg.AI, logger),
		Assignments:   service.NewAssignmentService(ticketRepo, userRepo),
		Notifications: service.NewNotificationService(mailer, logger),
		Logger:        logger,
		Retries:       cfg.Workflow.Retries,
	}); err != nil {
		logger.Fatal("failed to register workflow", zap.Error(err))
	}
	if redisDispatcher != nil {
		go func() {
			if err := redisDispatcher.Run(ctx); err != nil {
				logger.Error("event consumer stopped", zap.Error(err))
			}
		}()
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: userRepo})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName:        cfg.App.Name,
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		AllowOrigins:   cfg.App.CORSAllowOrigins,
		Routes: httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb, metrics),
			Auth:           handlers.NewAuthHandler(authService),
			Tickets:        handlers.NewTicketsHandler(ticketService),
			AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
		},
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	if d, ok := dispatcher.(events.InMemoryDispatcher); ok {
		// let in-flight runs finish
		d.Wait()
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
