package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/vuln-remediation/internal/api/http"
	"github.com/spec-kit/vuln-remediation/internal/api/http/handlers"
	"github.com/spec-kit/vuln-remediation/internal/aggregate"
	"github.com/spec-kit/vuln-remediation/internal/auth"
	"github.com/spec-kit/vuln-remediation/internal/config"
	"github.com/spec-kit/vuln-remediation/internal/events"
	"github.com/spec-kit/vuln-remediation/internal/lifecycle"
	"github.com/spec-kit/vuln-remediation/internal/observability"
	"github.com/spec-kit/vuln-remediation/internal/persistence"
	"github.com/spec-kit/vuln-remediation/internal/repository"
	"github.com/spec-kit/vuln-remediation/internal/service"
	"github.com/spec-kit/vuln-remediation/internal/worker"
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

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	actionLogRepo := repository.NewActionLogRepository(pool)
	vulnActionRepo := repository.NewVulnActionRepository(pool)

	var summaryCache repository.SummaryCache
	if redis.Enabled() {
		summaryCache = repository.NewSummaryCache(redis.Client, cfg.Summary.CacheTTL())
	}

	dispatcher := events.NewInMemoryDispatcher()
	machine := lifecycle.NewMachine()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		ActionLogRepo:  actionLogRepo,
		VulnActionRepo: vulnActionRepo,
		Machine:        machine,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})

	bar := aggregate.DefaultBarConfig()
	bar.CollapseOnCompleted = cfg.Summary.CollapseOnCompleted
	summaryService := service.NewSummaryService(service.SummaryDependencies{
		TicketRepo: ticketRepo,
		TeamRepo:   teamRepo,
		Cache:      summaryCache,
		BarConfig:  bar,
		Logger:     logger,
	})

	notificationService := service.NewNotificationService(dispatcher, teamRepo, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)
	worker.StartCacheInvalidation(dispatcher, summaryService, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService, machine),
		Summary:        handlers.NewSummaryHandler(summaryService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
