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

	httptransport "github.com/spec-kit/maintenance-service/internal/api/http"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/persistence"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
	"github.com/spec-kit/maintenance-service/internal/worker"
	"github.com/spec-kit/maintenance-service/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	equipmentRepo := repository.NewEquipmentRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	historyRepo := repository.NewRequestHistoryRepository(pool)
	txManager := repository.NewTxManager(pool)

	principalCache := auth.NewRedisPrincipalCache(redis, cfg.Redis.PrincipalCacheTTL(), logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger.Named("activity"), metrics))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:       userRepo,
		PrincipalCache: principalCache,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:   requestRepo,
		HistoryRepo:   historyRepo,
		EquipmentRepo: equipmentRepo,
		TeamRepo:      teamRepo,
		UserRepo:      userRepo,
		TxManager:     txManager,
		Engine:        workflow.NewEngine(),
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger.Named("requests"),
		KeyPrefix:     cfg.Requests.KeyPrefix,
		PageSize:      cfg.Requests.DefaultPageSize,
	})
	equipmentService := service.NewEquipmentService(service.EquipmentDependencies{
		EquipmentRepo: equipmentRepo,
		TeamRepo:      teamRepo,
		UserRepo:      userRepo,
	})
	teamService := service.NewTeamService(service.TeamDependencies{
		TeamRepo:       teamRepo,
		UserRepo:       userRepo,
		PrincipalCache: principalCache,
		Logger:         logger.Named("teams"),
	})

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, principalCache)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Requests:       handlers.NewRequestsHandler(requestService, cfg.Requests.DefaultPageSize),
		Equipment:      handlers.NewEquipmentHandler(equipmentService, requestService, cfg.Requests.DefaultPageSize),
		Teams:          handlers.NewTeamsHandler(teamService),
		AuthMiddleware: authMiddleware,
	}
	if metrics != nil {
		routes.MetricsHandler = metrics.Handler()
		routes.MetricsPath = cfg.Metrics.Path
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
