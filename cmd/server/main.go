package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dhanavadh/aiform-backend/internal"
	"github.com/dhanavadh/aiform-backend/internal/auth"
	"github.com/dhanavadh/aiform-backend/internal/checkout"
	"github.com/dhanavadh/aiform-backend/internal/config"
	"github.com/dhanavadh/aiform-backend/internal/export"
	"github.com/dhanavadh/aiform-backend/internal/generator"
	"github.com/dhanavadh/aiform-backend/internal/handlers"
	"github.com/dhanavadh/aiform-backend/internal/logger"
	"github.com/dhanavadh/aiform-backend/internal/payment"
	"github.com/dhanavadh/aiform-backend/internal/pdf"
	"github.com/dhanavadh/aiform-backend/internal/services"
	"github.com/dhanavadh/aiform-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	l, err := logger.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer l.Sync()

	if err := internal.InitDB(cfg, l); err != nil {
		l.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer internal.CloseDB()

	ctx := context.Background()

	gen, err := generator.NewGeminiGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		l.Fatal("Failed to initialize schema generator", zap.Error(err))
	}

	var uploader storage.Uploader
	if cfg.GCS.BucketName != "" {
		gcsClient, err := storage.NewGCSClient(cfg.GCS.BucketName, cfg.GCS.CredentialsPath)
		if err != nil {
			l.Fatal("Failed to initialize GCS client", zap.Error(err))
		}
		defer gcsClient.Close()
		uploader = gcsClient
		l.Info("GCS client initialized", zap.String("bucket", cfg.GCS.BucketName))
	} else {
		l.Warn("GCS bucket not configured, export uploads disabled")
	}

	var pending checkout.Store
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			l.Fatal("Failed to ping redis", zap.Error(err))
		}
		defer redisClient.Close()
		pending = checkout.NewRedisStore(redisClient)
	} else {
		pending = checkout.NewDBStore(internal.DB)
	}

	accountService := services.NewAccountService(internal.DB)
	formService := services.NewFormService(internal.DB, accountService, gen, cfg.Quota.FreeFormLimit, l)
	responseService := services.NewResponseService(internal.DB, formService, l)
	exportService := services.NewExportService(internal.DB, export.New(l), uploader)
	paymentService := services.NewPaymentService(
		payment.NewClient(cfg.Payment, cfg.Server.BaseURL),
		pending,
		accountService,
		cfg.Payment.Amount,
		l,
	)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(l))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(r, handlers.Handlers{
		Forms:     handlers.NewFormHandler(formService, cfg.Server),
		Pages:     handlers.NewPageHandler(formService, responseService, cfg.Auth.SignInURL, l),
		Public:    handlers.NewPublicHandler(formService, responseService),
		Responses: handlers.NewResponseHandler(formService, responseService, exportService, pdf.NewChromePrinter()),
		Payments:  handlers.NewPaymentHandler(paymentService, cfg.Payment, l),
	}, auth.NewVerifier(cfg.Auth.JWTSecret))

	l.Info("Server starting", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		l.Fatal("Server stopped", zap.Error(err))
	}
}
