package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Stock Ledger API
// @version         1.0
// @description     Multi-tenant inventory stock ledger with moving average costing, reservations, transfers, production orders and inventory counts.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	levelRepo := repository.NewStockLevelRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	batchRepo := repository.NewStockBatchRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	productionRepo := repository.NewProductionRepository(db)
	kitRepo := repository.NewKitRepository(db)
	countRepo := repository.NewCountRepository(db)
	productRepo := repository.NewProductRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	stockService := service.NewStockService(levelRepo, movementRepo, settingsRepo, auditRepo, txManager, wsHub)
	batchService := service.NewBatchService(batchRepo, auditRepo, txManager)
	reservationService := service.NewReservationService(reservationRepo, levelRepo, auditRepo, txManager)
	transferService := service.NewTransferService(transferRepo, sequenceRepo, stockService, auditRepo, txManager)
	kitService := service.NewKitService(kitRepo, productRepo, auditRepo, txManager)
	productionService := service.NewProductionService(productionRepo, kitRepo, sequenceRepo, movementRepo, stockService, auditRepo, txManager)
	countService := service.NewCountService(countRepo, levelRepo, productRepo, sequenceRepo, stockService, auditRepo, txManager)
	productService := service.NewProductService(productRepo, warehouseRepo, auditRepo, txManager)
	reportService := service.NewReportService(db)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	stockHandler := handler.NewStockHandler(stockService, batchService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	transferHandler := handler.NewTransferHandler(transferService)
	productionHandler := handler.NewProductionHandler(productionService, kitService)
	countHandler := handler.NewCountHandler(countService)
	catalogHandler := handler.NewCatalogHandler(productService)
	reportHandler := handler.NewReportHandler(reportService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	stockHandler.RegisterRoutes(router.Group(""))
	reservationHandler.RegisterRoutes(router.Group(""))
	transferHandler.RegisterRoutes(router.Group(""))
	productionHandler.RegisterRoutes(router.Group(""))
	countHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
