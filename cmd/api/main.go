package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/exercisetracker/internal/api"
	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
	"example.com/exercisetracker/internal/logging"
	"example.com/exercisetracker/internal/persistence"
	httptransport "example.com/exercisetracker/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := run(cfg, logging.Setup(cfg.LogLevel)); err != nil {
		os.Exit(1)
	}
}

// run serves until SIGINT or SIGTERM. The listener is closed before the store
// so in-flight requests can still finish.
func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := persistence.Open(ctx, persistence.Options{
		URI:      cfg.StoreURI,
		Database: cfg.Database,
		Timeout:  cfg.StoreTimeout,
	}, logger)

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopicPrefix)
		logger.Info("publishing domain events", "brokers", cfg.KafkaBrokers, "topic_prefix", cfg.EventsTopicPrefix)
	}

	service := domain.NewService(repo, publisher, domain.WithLogger(logger))
	router := api.NewRouter(api.NewHandler(service), api.RouterConfig{
		StaticDir:      cfg.StaticDir,
		ViewsDir:       cfg.ViewsDir,
		AllowOrigins:   cfg.CORSAllowedOrigins,
		MetricsEnabled: cfg.MetricsEnabled,
		Logger:         logger,
	})

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress()), router)
	serveErr := httptransport.Serve(ctx, server, cfg.ShutdownTimeout, logger)
	if serveErr != nil {
		logger.Error("http server stopped", "error", serveErr)
	} else {
		logger.Info("http server closed")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.Close(closeCtx); err != nil {
		logger.Error("failed to close store connection", "error", err)
	} else {
		logger.Info("store connection closed")
	}
	if err := publisher.Close(); err != nil {
		logger.Error("failed to close event publisher", "error", err)
	}
	return serveErr
}
