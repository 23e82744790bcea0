package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/booking-service/internal/api/http"
	"github.com/spec-kit/booking-service/internal/api/http/handlers"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/config"
	"github.com/spec-kit/booking-service/internal/events"
	"github.com/spec-kit/booking-service/internal/observability"
	"github.com/spec-kit/booking-service/internal/persistence"
	"github.com/spec-kit/booking-service/internal/repository"
	"github.com/spec-kit/booking-service/internal/service"
	"github.com/spec-kit/booking-service/internal/verification"
	"github.com/spec-kit/booking-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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
		if err := persistence.RunMigrations(ctx, cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("booking")
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	requestRepo := repository.NewServiceRequestRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := worker.NewNotificationWorker(service.NewNotificationService(logger, cfg.Notification), logger, 256)
	notifications.Subscribe(dispatcher)
	notifications.Start(ctx)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Verifier: newVerifier(cfg, redis, logger),
		Limiter:  verification.NewLimiter(redis.Client, cfg.SMS.Window(), cfg.SMS.MaxPerWindow, cfg.SMS.Cooldown()),
		Logger:   logger,
	})
	bookingService := service.NewBookingService(service.BookingDependencies{
		RequestRepo: requestRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		UserRepo:    userRepo,
		RequestRepo: requestRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := httptransport.NewApp(cfg.App.Name, logger, metrics,
		httptransport.MiddlewareConfig{
			Timeout:     cfg.App.RequestTimeout(),
			CORSOrigins: cfg.App.CORSOrigins,
		},
		httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
				"postgres": pg,
				"redis":    redis,
			}),
			Auth:           handlers.NewAuthHandler(authService),
			Services:       handlers.NewServicesHandler(bookingService),
			Admin:          handlers.NewAdminHandler(adminService),
			AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
			BanGate:        auth.NewBanGate(userRepo, logger, metrics),
			Users:          userRepo,
			Metrics:        metrics,
		})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer drainCancel()
	if err := notifications.Stop(drainCtx); err != nil {
		logger.Warn("notification queue not drained", zap.Error(err))
	}
}

func newVerifier(cfg *config.Config, redis *persistence.Redis, logger *zap.Logger) verification.Verifier {
	if cfg.SMS.Provider == config.SMSProviderTwilio {
		logger.Info("phone verification via twilio")
		return verification.NewTwilioVerifier(verification.TwilioConfig{
			BaseURL:    cfg.SMS.TwilioBaseURL,
			AccountSID: cfg.SMS.TwilioAccountSID,
			AuthToken:  cfg.SMS.TwilioAuthToken,
			ServiceSID: cfg.SMS.TwilioServiceSID,
			Timeout:    cfg.SMS.TwilioTimeout(),
		})
	}
	logger.Info("phone verification via local redis codes")
	return verification.NewRedisVerifier(redis.Client, cfg.SMS.CodeTTL(), logger)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
