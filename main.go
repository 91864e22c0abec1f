package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tiendabot/tiendabot-api/config"
	"github.com/tiendabot/tiendabot-api/controllers"
	"github.com/tiendabot/tiendabot-api/models"
	"github.com/tiendabot/tiendabot-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting Tiendabot API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetConfig(cfg)

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Merchant{},
		&models.Client{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Promotion{},
		&models.Message{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize media service for product photos
	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitMediaService(); err != nil {
			log.Fatalf("Failed to initialize media service: %v", err)
		}
		log.Println("Media service initialized")
	} else {
		log.Println("AWS_S3_BUCKET not set, product photos disabled")
	}

	// The agent and messenger collaborators are wired by the deployment
	// through services.SetAgentService / services.SetMessengerService.
	// Without a messenger the webhook still returns every reply in its
	// HTTP response, so synchronous gateways keep working.
	if services.GetAgentService() == nil {
		log.Println("No agent service configured, inbound messages get a clarification reply")
	}

	router := setupAppRouter()

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupAppRouter builds the Gin engine with all API routes
func setupAppRouter() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Inbound customer messages from the messaging gateway
		v1.POST("/webhook/messages", controllers.ReceiveMessage)

		// Merchant catalog management
		v1.POST("/merchants/:id/products", controllers.CreateProduct)
		v1.GET("/merchants/:id/products", controllers.ListProducts)
		v1.POST("/products/:id/image", controllers.UploadProductImage)
		v1.PATCH("/products/:id/stock", controllers.AdjustStock)

		// Merchant order views
		v1.GET("/merchants/:id/orders", controllers.ListOrders)
		v1.GET("/orders/:id", controllers.GetOrder)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tiendabot API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
