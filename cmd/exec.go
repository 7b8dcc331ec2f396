package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"ticket-shop/config"
	"ticket-shop/internal/handlers"
	"ticket-shop/internal/services"
	"ticket-shop/internal/services/gateway"
	"ticket-shop/internal/store"
	_ "ticket-shop/migrations"
	"ticket-shop/monitoring"
	"ticket-shop/security"
	"ticket-shop/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go/v7"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUUID))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	// Initialize gateway adapter
	gw := gateway.New(&cfg.Gateway)

	// Initialize services
	stores := store.New(app)
	orderService := services.NewOrderService(stores, cfg.OrderNumberRetries)
	ticketService := services.NewTicketService(stores)
	notifier := services.NewNotifier(pn)
	settlementService := services.NewSettlementService(stores, gw, redisClient, ticketService, notifier, &services.SettlementOptions{
		LockTTL: cfg.SettlementLockTTL,
		Sandbox: cfg.Gateway.Sandbox,
	})

	limiter := security.NewRateLimiter(redisClient, cfg.CheckoutRateLimit, cfg.CheckoutRateWindow)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(app, orderService, limiter)
	paymentHandler := handlers.NewPaymentHandler(app, gw, orderService, settlementService)
	adminHandler := handlers.NewAdminHandler(app, gw, orderService, ticketService, settlementService)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Metrics server
	if cfg.EnableMetrics {
		go monitoring.Serve(cfg.MetricsPort)
	}

	// Setup graceful shutdown logging
	go handleShutdown()

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Order endpoints
		e.Router.POST("/api/v1/orders", orderHandler.CreateOrder)
		e.Router.GET("/api/v1/orders", orderHandler.ListOrders)
		e.Router.GET("/api/v1/orders/{orderNumber}", orderHandler.GetOrder)

		// Payment endpoints
		e.Router.POST("/api/v1/payment/checkout/{orderNumber}", paymentHandler.Checkout)
		e.Router.POST("/api/v1/payment/notify", paymentHandler.Notify)
		e.Router.GET("/api/v1/payment/return", paymentHandler.Return)

		// Sandbox settlement trigger
		if cfg.Environment == "development" || cfg.Gateway.Sandbox {
			e.Router.POST("/api/v1/payment/sandbox/{orderNumber}", paymentHandler.SimulatePayment)
		}

		// Admin endpoints
		e.Router.GET("/api/v1/admin/orders/reconcile", adminHandler.Reconcile)
		e.Router.GET("/api/v1/admin/orders/{orderNumber}/gateway", adminHandler.QueryGateway)
		e.Router.POST("/api/v1/admin/orders/{orderNumber}/status", adminHandler.SetStatus)
		e.Router.POST("/api/v1/admin/orders/{orderNumber}/tickets", adminHandler.ReissueTickets)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	return app.Start()
}

// handleShutdown logs the shutdown signal; PocketBase handles the actual
// server teardown.
func handleShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}
