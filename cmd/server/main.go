// Command server runs the dutch.cards game server: one global room, a
// websocket command pipeline, and optional Postgres/Redis audit sinks.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/a-Leong/dutch.cards/internal/auth"
	"github.com/a-Leong/dutch.cards/internal/cache"
	"github.com/a-Leong/dutch.cards/internal/config"
	"github.com/a-Leong/dutch.cards/internal/database"
	"github.com/a-Leong/dutch.cards/internal/game"
	"github.com/a-Leong/dutch.cards/internal/server"
)

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	auth.Init(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL != "" {
		if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
			log.Fatalf("connecting to postgres: %v", err)
		}
		defer database.DB.Close()
		log.Info("postgres audit sink enabled")
	}
	if cfg.RedisAddr != "" {
		if err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
			log.Fatalf("connecting to redis: %v", err)
		}
		defer cache.Rdb.Close()
		log.Info("redis command historian enabled")
	}

	g := game.New(log)
	srv := server.New(g, log)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	go func() {
		log.Infof("listening on %s (game %s)", cfg.ListenAddr, g.ID)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}

	// Best-effort audit of the session before the in-memory state is lost.
	if commands := g.Snapshot().Commands; len(commands) > 0 {
		if err := database.SaveCommandLog(shutdownCtx, g.ID, commands); err != nil {
			log.Errorf("saving command log: %v", err)
		}
	}
}
