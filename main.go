package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/table-ordering/config"
	"github.com/yeremiapane/table-ordering/database"
	"github.com/yeremiapane/table-ordering/notifier"
	"github.com/yeremiapane/table-ordering/router"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load configuration: %v", err)
	}
	utils.InitLoggerWithOptions(utils.LogOptions{Level: cfg.LogLevel, File: cfg.LogFile})
	cfg.WarnDefaults()

	if cfg.GinMode == gin.ReleaseMode || cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg.DB)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if err := database.Seed(db, cfg.AdminUserName, cfg.AdminPassword); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed database: %v", err)
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil && cfg.Redis.Addr != "" {
		utils.ErrorLogger.WithField("addr", cfg.Redis.Addr).Warn("redis unreachable, running without cache")
	}

	hub := notifier.NewHub(utils.InfoLogger)
	publishers := notifier.FanOut{hub}
	var amqpPub *notifier.AMQPPublisher
	if cfg.AMQP.URL != "" {
		amqpPub = notifier.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, utils.ErrorLogger)
		publishers = append(publishers, amqpPub)
	}

	tokens := services.NewTokenService(db, services.TokenConfig{
		CustomerSecret: cfg.CustomerJWTSecret,
		StaffSecret:    cfg.StaffJWTSecret,
		AccessTTL:      cfg.AccessTokenTTL,
		RefreshTTL:     cfg.RefreshTokenTTL,
		StaffTTL:       cfg.StaffTokenTTL,
	}, rdb)
	sessions := services.NewSessionService(db, tokens, publishers, cfg.SessionIdleTimeout)
	kots := services.NewKOTService(db)
	carts := services.NewCartService(db)
	orders := services.NewOrderService(db, sessions, kots, carts, publishers)

	cleanup := services.NewCleanupService(sessions, tokens, cfg.CleanupInterval, cfg.EndedSessionRetention)
	cleanup.Start()

	r := router.SetupRouter(router.Deps{
		DB:          db,
		Redis:       rdb,
		Hub:         hub,
		Tokens:      tokens,
		Sessions:    sessions,
		Auth:        services.NewAuthService(tokens, sessions),
		Carts:       carts,
		Orders:      orders,
		KOTs:        kots,
		RateLimit:   cfg.RateLimit,
		CORSOrigins: cfg.CORSOrigins,
		Production:  cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.InfoLogger.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.WithError(err).Error("server shutdown failed")
	}

	cleanup.Stop()
	if amqpPub != nil {
		if err := amqpPub.Close(); err != nil {
			utils.ErrorLogger.WithError(err).Warn("closing amqp publisher failed")
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
