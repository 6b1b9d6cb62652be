package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/axis-ops/ticket-service/internal/advisory"
	httptransport "github.com/axis-ops/ticket-service/internal/api/http"
	"github.com/axis-ops/ticket-service/internal/api/http/handlers"
	"github.com/axis-ops/ticket-service/internal/auth"
	"github.com/axis-ops/ticket-service/internal/config"
	"github.com/axis-ops/ticket-service/internal/email"
	"github.com/axis-ops/ticket-service/internal/events"
	"github.com/axis-ops/ticket-service/internal/jira"
	"github.com/axis-ops/ticket-service/internal/observability"
	"github.com/axis-ops/ticket-service/internal/service"
	"github.com/axis-ops/ticket-service/internal/store"
	"github.com/axis-ops/ticket-service/internal/worker"
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

	metrics := observability.NewMetrics()

	ticketStore, closeStore, err := buildStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to init ticket store", zap.Error(err))
	}
	defer closeStore()

	advisoryClient := advisory.New(cfg.Advisory, logger, metrics)
	jiraClient := jira.NewClient(cfg.Jira, logger, metrics)
	mailer := email.NewSender(cfg.Email, logger)
	dispatcher := events.NewInMemoryDispatcher(logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      ticketStore,
		Advisory:   advisoryClient,
		Jira:       jiraClient,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	exportService := service.NewExportService(ticketService, mailer, logger)
	notificationService := service.NewNotificationService(dispatcher, mailer, cfg.Email.OpsRecipient, logger)
	worker.StartNotificationWorker(notificationService)

	authService, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to seed account directory", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), authService.Directory())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, ticketStore, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Data:           handlers.NewDataHandler(ticketService, exportService),
		Priority:       handlers.NewPriorityHandler(),
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

// buildStore selects the ticket store backend from configuration.
func buildStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		pg, err := store.NewPostgresStore(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case config.StoreDriverRedis:
		rd := store.NewRedisStore(cfg.Redis, logger)
		return rd, rd.Close, nil
	default:
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
