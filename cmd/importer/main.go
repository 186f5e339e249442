package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/config"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/database"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// 用法: importer -config config/config.yaml -file data.json
func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
	file := flag.String("file", "", "import bundle (json)")
	flag.Parse()
	if *file == "" {
		log.Fatal("-file is required")
	}

	cfg, err := config.LoadFrom(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, "console"); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	defer database.Close(db)

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("open bundle", zap.Error(err))
	}
	defer f.Close()

	store := repository.NewStore(db, repository.SequenceOptions{UserFloor: cfg.ID.UserFloor, MaxAttempts: cfg.ID.MaxAttempts})
	svc := service.NewImportService(store, service.Options{BcryptCost: cfg.Auth.BcryptCost})

	bundle, err := svc.Decode(f)
	if err != nil {
		logger.Fatal("decode bundle", zap.Error(err))
	}
	start := time.Now()
	stats, err := svc.Import(context.Background(), bundle)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	logger.Info("import done",
		zap.Int("users", stats.Users),
		zap.Int("recipes", stats.Recipes),
		zap.Int("ingredients", stats.Ingredients),
		zap.Int("reviews", stats.Reviews),
		zap.Int("follows", stats.Follows),
		zap.Int("likes", stats.Likes),
		zap.Duration("elapsed", time.Since(start)))
}
