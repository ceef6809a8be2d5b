package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/hoplink/backend/internal/config"
	"github.com/hoplink/backend/internal/core/services"
	"github.com/hoplink/backend/internal/infrastructure/db"
	"github.com/hoplink/backend/internal/infrastructure/logger"
	"github.com/hoplink/backend/internal/infrastructure/remote"
	"github.com/hoplink/backend/internal/transport/http/handlers"
	httpmw "github.com/hoplink/backend/internal/transport/http/middleware"
	"gorm.io/gorm"
)

type RouterConfig struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config *config.Config
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	// Repositories
	connectionRepo := db.NewConnectionRepository(cfg.DB, cfg.Logger)

	// Services
	connectionService := services.NewConnectionService(services.ConnectionServiceConfig{
		Repository:    connectionRepo,
		Logger:        cfg.Logger,
		EncryptionKey: cfg.Config.Security.EncryptionKey,
	})

	transferService := services.NewTransferService(services.TransferServiceConfig{
		Dialer:    remote.NewSSHDialer(),
		Directory: connectionService,
		Logger:    cfg.Logger,
		Config:    cfg.Config.Transfer,
	})

	// Handlers
	connectionHandler := handlers.NewConnectionHandler(connectionService, cfg.Logger)
	transferHandler := handlers.NewTransferHandler(transferService, cfg.Logger)
	transferFeedHandler := handlers.NewTransferFeedHandler(transferService, cfg.Logger)

	// Live progress feed
	app.Use("/ws", httpmw.AdminAuth(cfg.Config), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/transfers/:id", websocket.New(transferFeedHandler.Handle))

	// API v1 routes
	api := app.Group("/api/v1")

	connections := api.Group("/connections", httpmw.AdminAuth(cfg.Config))
	connections.Post("/", connectionHandler.CreateConnection)
	connections.Get("/", connectionHandler.GetConnections)
	connections.Get("/:id", connectionHandler.GetConnection)
	connections.Delete("/:id", connectionHandler.DeleteConnection)

	transfers := api.Group("/transfers", httpmw.AdminAuth(cfg.Config))
	transfers.Post("/", transferHandler.SubmitTransfer)
	transfers.Get("/", transferHandler.GetTransfers)
	transfers.Get("/:id", transferHandler.GetTransfer)
	transfers.Post("/:id/cancel", transferHandler.CancelTransfer)
}
