package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/handlers"
	"github.com/jason-s-yu/uno/internal/middleware"
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

	if err := auth.Init(cfg.TokenExpire); err != nil {
		logger.Fatalf("auth: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := handlers.NewGameServer(logger, cfg)

	if cfg.Redis.Addr != "" {
		queue, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer queue.Close()
		srv.Recorder = queue
		logger.Infof("Publishing game actions to %s on %s", queue.Name(), cfg.Redis.Addr)
	}

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	if store != nil {
		defer store.Close()
		srv.Archive = store
		logger.Infof("Archiving rounds to %s", cfg.Database.Driver)
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/game/ws/*", middleware.LogMiddleware(logger)(handlers.GameWSHandler(logger, srv)))
	r.Handle("/game/*", middleware.LogMiddleware(logger)(srv))

	go reapIdleGames(ctx, logger, srv, cfg.IdleTimeout)

	httpSrv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Running on %s", cfg.Addr())
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("Server stopped")
}

func reapIdleGames(ctx context.Context, logger *logrus.Logger, srv *handlers.GameServer, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(maxAge / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := srv.ReapIdle(maxAge); n > 0 {
				logger.Infof("Removed %d idle games", n)
			}
		}
	}
}
