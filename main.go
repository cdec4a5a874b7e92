// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"cinema-inventory/cmd"
	"cinema-inventory/internal/data/repository"
	"cinema-inventory/internal/events"
	"cinema-inventory/internal/realtime"
	"cinema-inventory/internal/usecase"
	"cinema-inventory/internal/wire"
	"cinema-inventory/pkg/database"
	"cinema-inventory/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("timezone", config.App.Location().String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Inventory layout and screen template
	layout, err := usecase.LoadLayout(config.Inventory.LayoutFile)
	if err != nil {
		logger.Fatal("Failed to load inventory layout", zap.Error(err))
	}
	template, err := usecase.LoadScreenTemplate(config.Inventory.TemplateFile)
	if err != nil {
		logger.Fatal("Failed to load screen template", zap.Error(err))
	}

	// Realtime fan-out
	hub := realtime.NewHub(config.Realtime.AllowedOrigins, logger)
	defer hub.Close()

	var broadcaster realtime.Broadcaster
	switch config.Realtime.Backend {
	case "redis":
		client, err := database.InitRedis(config.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()

		relay := realtime.NewRedisBroadcaster(client, config.Realtime.Channel, hub, logger)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("Realtime relay stopped", zap.Error(err))
			}
		}()
		broadcaster = relay
	default:
		broadcaster = realtime.NewLocalBroadcaster(hub, logger)
	}
	logger.Info("Realtime backend ready", zap.String("backend", config.Realtime.Backend))

	// Booking events
	publisher, err := events.NewPublisher(config.Broker, logger)
	if err != nil {
		logger.Fatal("Failed to init event publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, config, hub, usecase.Deps{
		Broadcaster: broadcaster,
		Publisher:   publisher,
		Layout:      layout,
		Template:    template,
	}, logger)

	if config.Scheduler.Enabled {
		app.Service.Scheduler.Start(ctx)
		defer app.Service.Scheduler.Stop()
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}
