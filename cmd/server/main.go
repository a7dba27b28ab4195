package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tobiasmaugus/vendas-api/internal/auth"
	"github.com/tobiasmaugus/vendas-api/internal/config"
	"github.com/tobiasmaugus/vendas-api/internal/database"
	"github.com/tobiasmaugus/vendas-api/internal/handler"
	"github.com/tobiasmaugus/vendas-api/internal/jwtutil"
	"github.com/tobiasmaugus/vendas-api/internal/logger"
	"github.com/tobiasmaugus/vendas-api/internal/metrics"
	"github.com/tobiasmaugus/vendas-api/internal/middleware"
	"github.com/tobiasmaugus/vendas-api/internal/service"
)

const serviceName = "vendas-api"

func main() {
	// .env is optional; production environments set real env vars
	_ = godotenv.Load()

	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use the structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting vendas-api",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	db, err := database.Connect(&appConfig.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)
	log.Info("Database connection established",
		zap.String("db_host", appConfig.DB.Host),
		zap.String("db_name", appConfig.DB.DBName))

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations applied")

	jwtUtil := jwtutil.NewJWTUtil(&appConfig.JWT)
	verifier := auth.NewGoogleVerifier(&appConfig.Google)

	authService := service.NewAuthService(db, verifier, jwtUtil)
	customerService := service.NewCustomerService(db)
	productService := service.NewProductService(db)
	saleService := service.NewSaleService(db)

	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Customers: handler.NewCustomerHandler(customerService),
		Products:  handler.NewProductHandler(productService),
		Sales:     handler.NewSaleHandler(saleService, appConfig.Admin.DeletePassword),
		Health:    handler.NewHealthHandler(db),
	}

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.Secure())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(metrics.Middleware())

	handler.Register(e, handlers, middleware.Auth(jwtUtil, db))

	// Start server
	log.Info("Starting server", zap.String("port", appConfig.Server.Port))
	if err := e.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
