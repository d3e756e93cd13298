package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "tailorshop/api/swagger" // swagger docs
	"tailorshop/internal/config"
	"tailorshop/internal/database"
	"tailorshop/internal/events"
	"tailorshop/internal/handler"
	"tailorshop/internal/observability"
	"tailorshop/internal/repository"
	"tailorshop/internal/service"
	"tailorshop/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// @title           Tailor Shop API
// @version         1.0
// @description     Order management for a tailoring shop: orders, stock, payments and tracking.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Setup(ctx, cfg)
	if err != nil {
		logger.Error("telemetry setup incomplete", zap.Error(err))
	}
	if telemetry.LoggerProvider != nil {
		logger = observability.WithOTelExport(logger, config.ServiceName, telemetry.LoggerProvider)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.NewConnection(cfg.DSN(), database.PoolConfig{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL")

	// WebSocket hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	wsHub := websocket.NewHub(logger)
	go wsHub.Run(hubCtx)

	// Event sinks: websocket always, Kafka when brokers are configured
	sinks := []events.Sink{wsHub}
	var kafkaSink *events.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		writer, err := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic, config.ServiceName, otel.GetTracerProvider())
		if err != nil {
			logger.Error("kafka writer disabled", zap.Error(err))
		} else {
			kafkaSink = events.NewKafkaSink(writer)
			sinks = append(sinks, kafkaSink)
		}
	}
	dispatcher := events.NewDispatcher(cfg.EventBufferSize, logger, sinks...)
	dispatcher.Start()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db, repository.TxConfig{
		MaxConcurrent: cfg.TxMaxConcurrent,
		StartWait:     cfg.TxStartWait,
		Timeout:       cfg.TxTimeout,
	})
	orderRepo := repository.NewOrderRepository(db)
	fabricRepo := repository.NewFabricRepository(db)
	measurementRepo := repository.NewMeasurementRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	salesPersonRepo := repository.NewSalesPersonRepository(db)
	tailorRepo := repository.NewTailorRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	statisticsService := service.NewStatisticsService(statsRepo)
	inventoryService := service.NewInventoryService(inventoryRepo, movementRepo, supplierRepo, fabricRepo, txManager, auditService, logger)
	catalogService := service.NewCatalogService(catalogRepo, inventoryRepo, customerRepo, salesPersonRepo, tailorRepo, txManager, auditService)
	paymentService := service.NewPaymentService(orderRepo, transactionRepo, txManager, auditService, dispatcher, logger)
	orderService, err := service.NewOrderService(service.OrderServiceDeps{
		Orders:       orderRepo,
		Fabrics:      fabricRepo,
		Measurements: measurementRepo,
		Transactions: transactionRepo,
		Customers:    customerRepo,
		SalesPersons: salesPersonRepo,
		Tailors:      tailorRepo,
		Catalog:      catalogRepo,
		Inventory:    inventoryRepo,
		TxManager:    txManager,
		Ledger:       inventoryService,
		Statistics:   statisticsService,
		Audit:        auditService,
		Events:       dispatcher,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("order service wiring failed", zap.Error(err))
	}

	// Initialize Handlers
	orderHandler := handler.NewOrderHandler(orderService, cfg.JWTSecret)
	paymentHandler := handler.NewPaymentHandler(paymentService, cfg.JWTSecret)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, cfg.JWTSecret)
	catalogHandler := handler.NewCatalogHandler(catalogService, cfg.JWTSecret)
	auditHandler := handler.NewAuditHandler(auditService, cfg.JWTSecret)

	// Set up Gin Router
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret, handler.RoleAdmin, handler.RoleManager, handler.RoleStaff)
	})

	// API Routing
	orderHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("event dispatcher did not drain", zap.Error(err))
	}
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			logger.Error("kafka close", zap.Error(err))
		}
	}
	stopHub()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown", zap.Error(err))
	}
}
