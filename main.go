package main

import (
	"os"

	"go.uber.org/zap"

	"instagram-bot/internal/accounts"
	"instagram-bot/internal/config"
	"instagram-bot/internal/event_processor"
	"instagram-bot/internal/follower_gate"
	"instagram-bot/internal/handler"
	"instagram-bot/internal/instagram_client"
	"instagram-bot/internal/keywords"
	"instagram-bot/internal/repository"
	"instagram-bot/internal/server"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// The shared secret Meta presents during webhook verification.
	verifyToken := os.Getenv("VERIFY_TOKEN")
	if verifyToken == "" {
		logger.Warn("VERIFY_TOKEN environment variable not set, webhook verification will fail")
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Account registry and keyword rules: both degrade with a warning rather
	// than failing startup.
	registry := accounts.LoadFromEnv(logger)
	keywordTable := keywords.Load(cfg.Keywords.Path, logger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, logger)
	messageRepo := repository.NewMessageRepository(db, logger)
	commentRepo := repository.NewCommentRepository(db, logger)

	// Outbound Graph API client
	igClient := instagram_client.NewClient(cfg.GraphAPI.BaseURL, cfg.GraphAPI.Version, userRepo, messageRepo, logger)

	// Initialize event processor
	processor := event_processor.NewProcessor(
		registry,
		keywordTable,
		userRepo,
		messageRepo,
		commentRepo,
		igClient,
		follower_gate.AlwaysFollower{Logger: logger},
		logger,
	)

	// Initialize and run the server
	webhookHandler := handler.NewWebhookHandler(verifyToken, processor, logger)
	srv := server.NewServer(webhookHandler, logger)
	srv.Run(cfg.Server.Port)
}
