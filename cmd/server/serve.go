package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"swipr-api/internal/api/handlers"
	"swipr-api/internal/api/middleware"
	"swipr-api/internal/api/routes"
	"swipr-api/internal/api/validation"
	"swipr-api/internal/background"
	"swipr-api/internal/config"
	"swipr-api/internal/events"
	"swipr-api/internal/grpc/server"
	"swipr-api/internal/logging"
	"swipr-api/internal/metrics"
	"swipr-api/internal/mux"
	"swipr-api/internal/service"
	"swipr-api/internal/store"
	"swipr-api/internal/uploads"
	"swipr-api/pkg/models"
)

func buildServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg *config.Config) error {
	defer logging.CloseLogging()
	logger := logging.GetGlobalLogger()
	logger.Info("Starting Swipr API", map[string]interface{}{"version": handlers.Version})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()

	var grpcServer *server.Server
	if cfg.GRPC.Enabled {
		grpcServer = server.NewServer(collector)
	}

	client := store.NewClient(cfg)
	defer client.Close()
	client.OnAvailabilityChange(func(available bool) {
		collector.SetStorageAvailable(available)
		if grpcServer != nil {
			grpcServer.SetStorageAvailable(available)
		}
	})
	if !client.Available(ctx) {
		logger.Warn("Document store unavailable at startup, serving from memory", map[string]interface{}{
			"database_url_set": cfg.Database.URL != "",
		})
	}
	go client.Watch(ctx)

	publisher := background.NewDispatcher(cfg, events.NewPublisher(cfg), collector)
	if err := publisher.Start(); err != nil {
		return err
	}
	defer publisher.Close()

	uploadService, err := uploads.New(cfg)
	if err != nil {
		return err
	}

	opts := service.Options{Publisher: publisher, Recorder: collector}
	deps := &handlers.Deps{
		Config: cfg,
		Applications: service.NewApplicationService(store.NewCollection[models.JobApplication](client, "applications",
			store.WithFallbackHook[models.JobApplication](collector.RecordFallback)), opts),
		Contacts: service.NewContactService(store.NewCollection[models.ContactMessage](client, "contacts",
			store.WithFallbackHook[models.ContactMessage](collector.RecordFallback)), opts),
		Waitlist: service.NewWaitlistService(store.NewCollection[models.WaitlistEntry](client, "waitlist",
			store.WithFallbackHook[models.WaitlistEntry](collector.RecordFallback)), opts),
		Uploads:   uploadService,
		Validator: validation.New(),
		Storage:   client,
		Analytics: collector,
	}

	if len(cfg.Admin.Tokens) == 0 {
		logger.Warn("No admin token configured, admin endpoints will reject every request")
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, collector.RecordRateLimited)
		defer limiter.Stop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	routes.SetupRoutes(e, deps, limiter, collector)

	m := mux.NewMultiplexer(cfg, grpcServer, e)
	if err := m.Start(cfg.Address()); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Server shutdown complete")
	return nil
}
