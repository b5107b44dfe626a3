package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/config"
	"github.com/authora/backend/internal/http/handlers"
	"github.com/authora/backend/internal/middleware"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	linkHandler *handlers.LinkHandler,
	paymentHandler *handlers.PaymentHandler,
	walletHandler *handlers.WalletHandler,
	notificationHandler *handlers.NotificationHandler,
	dashboardHandler *handlers.DashboardHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Rate-limited endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Auth (public)
	api.Post("/auth/challenge", authHandler.CreateChallenge)
	api.Post("/auth/verify", authHandler.VerifySignIn)

	// Payment page (public): link payload, receiving address, payment report
	api.Get("/links/:id/public", linkHandler.GetPublicLink)
	api.Get("/creators/:userId/wallet", walletHandler.GetCreatorWallet)
	api.Post("/links/:id/payment", paymentHandler.RecordPayment)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Post("/me/ping", userHandler.Ping)

	// Wallets
	protected.Put("/me/wallet", walletHandler.ConnectWallet)
	protected.Get("/me/wallet", walletHandler.ListWallets)

	// Links
	protected.Post("/links", linkHandler.CreateLink)
	protected.Get("/links", linkHandler.ListLinks)
	protected.Get("/links/:id", linkHandler.GetLink)
	protected.Put("/links/:id", linkHandler.UpdateLink)
	protected.Delete("/links/:id", linkHandler.DeleteLink)

	// Notifications
	protected.Get("/notifications", notificationHandler.ListNotifications)
	protected.Post("/notifications", notificationHandler.CreateNotification)
	protected.Post("/notifications/:id/read", notificationHandler.MarkRead)

	// Dashboard
	protected.Get("/dashboard/stats", dashboardHandler.GetStats)
	protected.Get("/dashboard/payments", paymentHandler.ListRecentPayments)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
