// Command historian pops game actions from the Redis queue and archives them in batches.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.Level())

	if cfg.Redis.Addr == "" {
		logger.Fatal("REDIS_ADDR is required")
	}
	if cfg.Database.Driver == "" {
		logger.Fatal("DB_DRIVER is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer queue.Close()

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer store.Close()

	logger.Infof("Draining %s into %s", queue.Name(), cfg.Database.Driver)
	historian.New(queue, store, cfg.Historian.BatchSize, cfg.Historian.FlushDelay(), logger).Run(ctx)
}
