package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/chain"
	"github.com/authora/backend/internal/config"
	"github.com/authora/backend/internal/db"
	"github.com/authora/backend/internal/events"
	apphttp "github.com/authora/backend/internal/http"
	"github.com/authora/backend/internal/http/handlers"
	"github.com/authora/backend/internal/repositories"
	"github.com/authora/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Chain adapters
	adapters := []chain.Adapter{chain.NewSolanaAdapter(cfg.SolanaRPCURL, cfg.SolanaFallbackRPCURL, log)}
	if cfg.EthRPCURL != "" {
		evmAdapter, err := chain.NewEvmAdapter(cfg.EthRPCURL, cfg.EthFallbackRPCURL, log)
		if err != nil {
			log.Fatal("failed to set up ethereum adapter", zap.Error(err))
		}
		adapters = append(adapters, evmAdapter)
	} else {
		log.Warn("ETH_RPC_URL is not set, ethereum payments cannot be verified")
	}
	chains := chain.NewRegistry(adapters...)

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	linkRepo := repositories.NewLinkRepo(pool)
	notifRepo := repositories.NewNotificationRepo(pool)
	walletRepo := repositories.NewWalletRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	outboxRepo := repositories.NewOutboxRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	authService := services.NewAuthService(userRepo, walletRepo, auditRepo, cfg, log)
	linkService := services.NewLinkService(linkRepo, auditRepo, cfg, log)
	walletService := services.NewWalletService(walletRepo, auditRepo, chains, log)
	notifService := services.NewNotificationService(notifRepo, outboxRepo, userRepo, publisher, log)
	paymentService := services.NewPaymentService(linkRepo, paymentRepo, walletRepo, auditRepo, notifService, chains, publisher, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	userHandler := handlers.NewUserHandler(userRepo, log)
	linkHandler := handlers.NewLinkHandler(linkService, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, log)
	walletHandler := handlers.NewWalletHandler(walletService, log)
	notificationHandler := handlers.NewNotificationHandler(notifService, log)
	dashboardHandler := handlers.NewDashboardHandler(linkService, notifService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, linkHandler, paymentHandler, walletHandler, notificationHandler, dashboardHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
