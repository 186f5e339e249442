package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/config"
	"github.com/d60-Lab/recipehub/internal/api/handler"
	"github.com/d60-Lab/recipehub/internal/api/router"
	"github.com/d60-Lab/recipehub/internal/cache"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/database"
	"github.com/d60-Lab/recipehub/pkg/logger"
	"github.com/d60-Lab/recipehub/pkg/tracing"
)

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadFrom(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	defer database.Close(db)

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, profile cache disabled", zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	followCache := cache.NewFollowCache(rdb, cfg.Redis.TTL)

	store := repository.NewStore(db, repository.SequenceOptions{UserFloor: cfg.ID.UserFloor, MaxAttempts: cfg.ID.MaxAttempts})
	opts := service.Options{BcryptCost: cfg.Auth.BcryptCost}
	h := handler.NewHandler(handler.Services{
		Users:     service.NewUserService(store, followCache, opts),
		Relations: service.NewRelationshipService(store, followCache),
		Recipes:   service.NewRecipeService(store, opts),
		Reviews:   service.NewReviewService(store, opts),
		Analytics: service.NewAnalyticsService(store),
	})
	if err := handler.RegisterValidators(); err != nil {
		logger.Fatal("register validators", zap.Error(err))
	}

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router.Setup(cfg, h)}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}
