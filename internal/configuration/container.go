package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/nmanikumar5/Swappio-BE/internal/chat"
	"github.com/nmanikumar5/Swappio-BE/internal/db"
	"github.com/nmanikumar5/Swappio-BE/internal/handler"
	"github.com/nmanikumar5/Swappio-BE/internal/hub"
	"github.com/nmanikumar5/Swappio-BE/internal/model"
	"github.com/nmanikumar5/Swappio-BE/internal/repo"
	"github.com/nmanikumar5/Swappio-BE/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	UserHandler    handler.UserHandler
	ChatHandler    handler.ChatHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer() (*Container, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	con, err := db.OpenConnection(config.MongoURI, config.MongoDatabase)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	messageRepo := repo.NewMessageRepository(db.NewRepository[model.Message](con, config.MessagesCollection), logger)
	userRepo := repo.NewUserRepository(db.NewRepository[model.User](con, config.UsersCollection), logger)
	listingRepo := repo.NewListingRepository(db.NewRepository[model.Listing](con, config.ListingsCollection), logger)

	enricher := service.NewEnricher(userRepo, listingRepo, logger)
	chatService := service.NewChatService(messageRepo, userRepo, logger)
	userService := service.NewUserService(userRepo, config.JWTSecret, config.TokenTTL(), logger)

	// The hub is the dispatcher's presence registry and the dispatcher is the
	// hub's event sink, so they are wired in two steps.
	h := hub.NewHub(config.JWTSecret, config.AllowedOrigins, logger)
	h.SetDispatcher(chat.NewDispatcher(h, messageRepo, enricher, logger))

	return &Container{
		UserHandler:    handler.NewUserHandler(userService),
		ChatHandler:    handler.NewChatHandler(chatService),
		MonitorHandler: handler.NewMonitorHandler(hub.NewMonitorService(h)),
		Hub:            h,
		Config:         *config,
		Logger:         logger,
		mongoClient:    con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
