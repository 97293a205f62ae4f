package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"organicbasket/internal/config"
	"organicbasket/internal/gateway"
	"organicbasket/internal/handlers"
	"organicbasket/internal/middleware"
	"organicbasket/internal/models"
	"organicbasket/internal/repositories"
	"organicbasket/internal/services"
	"organicbasket/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Database ---
	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ Client ---
	// The broker is optional: order events are a side channel and the
	// storefront keeps working without them.
	var mqClient *rabbitmq.Client
	mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Printf("RabbitMQ unavailable, order events disabled: %v", err)
		mqClient = nil
	} else {
		defer mqClient.Close()
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Payment Gateway Adapter ---
	paymentGateway := gateway.NewRazorpayGateway(cfg.Gateway)
	if !paymentGateway.Configured() {
		log.Println("Payment gateway is not configured; checkout will use the manual UPI path.")
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	checkoutService := services.NewCheckoutService(cartRepo, orderRepo, paymentGateway, cfg.Gateway, mqClient)
	paymentService := services.NewPaymentService(orderRepo, paymentGateway, cfg.UPI, mqClient)
	orderService := services.NewOrderService(orderRepo, productRepo, mqClient)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// --- Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Public routes
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterPublicRoutes(apiV1)

	// The gateway callback is unauthenticated by design: its only trust
	// anchor is the payment signature.
	paymentHandler.RegisterCallbackRoutes(app)

	// Authenticated routes
	protected := apiV1.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protected)
	checkoutHandler.RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	// Staff-only routes
	staff := protected.Group("", middleware.StaffRequired())
	productHandler.RegisterStaffRoutes(staff)
	orderHandler.RegisterStaffRoutes(staff)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start RabbitMQ Consumer in a Goroutine ---
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for order events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received order event %s (Tag: %d): %s", msg.Type, msg.DeliveryTag, string(msg.Body))
				return nil // Return nil to acknowledge
			}
			if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// openDatabase picks the driver from the DSN: postgres for postgres:// URLs
// and key=value DSNs, SQLite for everything else.
func openDatabase(dsn string) (*gorm.DB, error) {
	if isPostgresDSN(dsn) {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=")
}
