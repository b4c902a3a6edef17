package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/brackets"
	"github.com/LegalDragon/Pickleball-Community-sub007/config"
	"github.com/LegalDragon/Pickleball-Community-sub007/db"
	"github.com/LegalDragon/Pickleball-Community-sub007/events"
	"github.com/LegalDragon/Pickleball-Community-sub007/handlers"
	"github.com/LegalDragon/Pickleball-Community-sub007/metrics"
	"github.com/LegalDragon/Pickleball-Community-sub007/middleware"
	"github.com/LegalDragon/Pickleball-Community-sub007/notifier"
	"github.com/LegalDragon/Pickleball-Community-sub007/repositories"
	api "github.com/LegalDragon/Pickleball-Community-sub007/routes"
	"github.com/LegalDragon/Pickleball-Community-sub007/services"
	"github.com/LegalDragon/Pickleball-Community-sub007/storage"
	charmlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
)

func newLogger(cfg *config.Config) *slog.Logger {
	level, err := charmlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = charmlog.InfoLevel
	}
	formatter := charmlog.JSONFormatter
	switch cfg.LogFormat {
	case "text":
		formatter = charmlog.TextFormatter
	case "logfmt":
		formatter = charmlog.LogfmtFormatter
	}
	handler := charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       formatter,
	})
	return slog.New(handler)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.MigratePostgres(dbConn.DB); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	metricsSvc := metrics.NewService()

	var archive storage.ObjectStore
	if cfg.R2AccountID != "" {
		archive, err = storage.NewCloudflareR2Store(rootCtx, storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 archive", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 archive initialized")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(rootCtx)
	logger.Info("WebSocket Hub started")

	dispatcher := events.NewDispatcher(cfg.EventQueueSize, logger, metricsSvc)

	var channels []notifier.Notifier
	if cfg.SMTPHost != "" {
		channels = append(channels, notifier.NewEmailNotifier(notifier.NewSMTPSender(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})))
	}
	if cfg.SlackToken != "" && cfg.SlackChannelID != "" {
		channels = append(channels, notifier.NewSlackNotifier(cfg.SlackToken, cfg.SlackChannelID))
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, notifier.NewWebhookNotifier(cfg.WebhookURL, logger))
	}
	if len(channels) > 0 {
		dispatcher.Subscribe("notifier", notifier.Subscriber(notifier.NewMulti(metricsSvc, logger, channels...)),
			events.TypeJoinRequestCreated,
			events.TypeJoinRequestResolved,
			events.TypeUnitsMerged,
			events.TypeUnitWaitlisted,
			events.TypeDrawingCompleted,
		)
		logger.Info("notification channels configured", slog.Int("channels", len(channels)))
	}

	if cfg.GCPProjectID != "" && cfg.PubSubTopic != "" {
		sender, teardown, err := events.NewPubSubSender(rootCtx, cfg.GCPProjectID, logger)
		if err != nil {
			logger.Error("failed to initialize Pub/Sub", slog.Any("error", err))
			os.Exit(1)
		}
		defer teardown()
		dispatcher.Subscribe("pubsub", events.PubSubForwarder(sender, cfg.PubSubTopic))
		logger.Info("Pub/Sub event forwarding enabled", slog.String("topic", cfg.PubSubTopic))
	}

	deps := services.Deps{
		DB:          dbConn,
		Divisions:   repositories.NewDivisionRepository(dbConn),
		Users:       repositories.NewUserRepository(dbConn),
		Courts:      repositories.NewCourtRepository(dbConn),
		Publisher:   dispatcher,
		Metrics:     metricsSvc,
		Logger:      logger,
		Random:      services.NewRandomizer(cfg.DrawingSeed),
		Broadcaster: services.NewHubBroadcaster(wsHub),
		LosersFeed:  services.ManualLosersFeed{},
		Archive:     archive,
	}
	unitService := services.NewUnitService(deps)
	drawingService := services.NewDrawingService(deps)
	scheduleService := services.NewScheduleService(deps)
	trackerService := services.NewTrackerService(deps)
	readService := services.NewReadService(deps)
	logger.Info("Services initialized")

	if archive != nil {
		dispatcher.Subscribe("schedule-archive", services.ScheduleArchiver(scheduleService, archive), events.TypeScheduleGenerated)
	}

	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Run(rootCtx)
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Units:     handlers.NewUnitHandler(unitService, readService, logger),
		Drawing:   handlers.NewDrawingHandler(drawingService, logger),
		Schedule:  handlers.NewScheduleHandler(scheduleService, readService, logger),
		Tracker:   handlers.NewTrackerHandler(trackerService, logger),
		WebSocket: handlers.NewWebSocketHandler(wsHub, drawingService, cfg.CORSAllowedOrigins, logger),
		Metrics:   metrics.NewMetricsHandler(),
		Health:    dbConn.PingContext,
	}, middleware.NewAuthenticator(cfg.JWTSecretKey, cfg.OperatorKeyHash, logger), cfg.CORSAllowedOrigins, logger)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			exitCode = 1
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			exitCode = 1
		} else {
			logger.Info("server shutdown complete")
		}
	}

	// Stopping the root context closes viewer connections and drains queued events.
	stop()
	<-dispatcherDone
	logger.Info("application exited")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
