package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"deepwork-api/internal/auth"
	"deepwork-api/internal/config"
	"deepwork-api/internal/db"
	"deepwork-api/internal/email"
	apihttp "deepwork-api/internal/http"
	"deepwork-api/internal/identity"
	"deepwork-api/internal/metrics"
	"deepwork-api/internal/repository"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if cfg.MigrateOnStart {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	accountRepo := repository.NewPgAccountRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	taskRepo := repository.NewPgTaskRepository(pool)
	focusRepo := repository.NewPgFocusSessionRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		resetLimiter identity.ResetRateLimiter
		tokenStore   identity.RefreshTokenStore
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			resetLimiter = identity.NewRedisResetRateLimiter(redisClient, 30*time.Minute, 3)
			tokenStore = identity.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	tokenSvc := identity.NewTokenServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	accountSvc := identity.NewAccountService(logger, accountRepo, emailSender, resetLimiter)

	collector := metrics.NewCollector()
	reconciler := auth.NewReconciler(logger, profileRepo, collector, nil)

	authHandler := apihttp.NewAuthHandler(logger, accountSvc, tokenSvc, reconciler)
	profileHandler := apihttp.NewProfileHandler(logger, reconciler, profileRepo)
	taskHandler := apihttp.NewTaskHandler(logger, taskRepo)
	focusHandler := apihttp.NewFocusHandler(logger, focusRepo)
	router := apihttp.NewRouter(logger, collector, tokenSvc, authHandler, profileHandler, taskHandler, focusHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
