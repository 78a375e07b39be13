package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/aldenvr/stagepass/config"
	"github.com/aldenvr/stagepass/internal/handlers"
	"github.com/aldenvr/stagepass/internal/middleware"
	"github.com/aldenvr/stagepass/internal/payment"
	"github.com/aldenvr/stagepass/internal/queue"
	"github.com/aldenvr/stagepass/internal/repository"
	"github.com/aldenvr/stagepass/internal/services"
	"github.com/aldenvr/stagepass/internal/worker"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	redisClient := config.InitRedis(cfg)

	store := repository.NewStore(db)
	catalogRepo := repository.NewCatalogRepository(store)
	inventoryRepo := repository.NewInventoryRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	paymentEventRepo := repository.NewPaymentEventRepository(store)
	instanceRepo := repository.NewTicketInstanceRepository(store)

	fulfillmentQueue := queue.NewFulfillmentQueue(redisClient)

	inventoryService := services.NewInventoryService(inventoryRepo)
	cartService := services.NewCartService(catalogRepo, inventoryService)
	reservationService := services.NewReservationService(store, catalogRepo, cartService, orderRepo, cfg.ReservationTTL)
	orderService := services.NewOrderService(store, orderRepo, paymentEventRepo, instanceRepo, fulfillmentQueue)
	fulfillmentService := services.NewFulfillmentService(store, catalogRepo, orderRepo, instanceRepo, inventoryRepo)

	provider := payment.NewClient(cfg.PaymentProvider, cfg.PaymentBaseURL, cfg.PaymentClientID, cfg.PaymentSecretKey)

	checkoutHandler := handlers.NewCheckoutHandler(catalogRepo, cartService, reservationService, orderService, fulfillmentService, provider)
	webhookHandler := handlers.NewWebhookHandler(orderService, cfg.PaymentProvider, cfg.PaymentCallbackSecret)
	orderHandler := handlers.NewOrderHandler(orderService)
	authHandler := handlers.NewAuthHandler(cfg.JWTSecret)
	ticketHandler := handlers.NewTicketHandler(cfg.JWTSecret)

	ctx := context.Background()
	go worker.NewExpiryWorker(orderService, cfg.SweepInterval).Run(ctx)
	go fulfillmentQueue.Consume(ctx, fulfillmentService)

	r := gin.Default()
	r.HandleMethodNotAllowed = true

	setupRoutes(r, db, cfg, checkoutHandler, webhookHandler, orderHandler, authHandler, ticketHandler)

	return r.Run(":" + cfg.Port)
}

func setupRoutes(
	r *gin.Engine,
	db *gorm.DB,
	cfg *config.Config,
	checkoutHandler *handlers.CheckoutHandler,
	webhookHandler *handlers.WebhookHandler,
	orderHandler *handlers.OrderHandler,
	authHandler *handlers.AuthHandler,
	ticketHandler *handlers.TicketHandler,
) {
	r.Use(middleware.DatabaseMiddleware(db))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/v1")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)

		public.POST("/checkout", checkoutHandler.Create)
		public.POST("/checkout/validate", checkoutHandler.Validate)
		public.POST("/payments/webhook", webhookHandler.Receive)
		public.GET("/orders/lookup", orderHandler.Lookup)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
			eventPublic.GET("/:id/ticket-types", handlers.ListTicketTypes)
			eventPublic.GET("/:id/products", handlers.ListProducts)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		eventProtected := protected.Group("/events")
		{
			eventProtected.POST("", handlers.CreateEvent)
			eventProtected.PUT("/:id", handlers.UpdateEvent)
			eventProtected.DELETE("/:id", handlers.DeleteEvent)
		}

		protected.POST("/ticket-types", handlers.CreateTicketType)
		protected.PUT("/ticket-types/:id", handlers.UpdateTicketType)
		protected.DELETE("/ticket-types/:id", handlers.DeleteTicketType)

		protected.POST("/products", handlers.CreateProduct)
		protected.DELETE("/products/:id", handlers.DeleteProduct)

		protected.GET("/tickets/:ticketId/qr", ticketHandler.GenerateTicketQR)
		protected.POST("/check-in", ticketHandler.CheckInTicket)
	}
}
