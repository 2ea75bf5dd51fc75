package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairwaylabs/minigolf-server/internal/config"
	"github.com/fairwaylabs/minigolf-server/internal/db"
	"github.com/fairwaylabs/minigolf-server/internal/service"
	"github.com/fairwaylabs/minigolf-server/internal/session"
	"github.com/fairwaylabs/minigolf-server/internal/store"
	"github.com/fairwaylabs/minigolf-server/internal/ws"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	database := db.InitDB(cfg.DatabaseDSN)
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	hub := ws.NewHub()
	sessions := session.NewClient(os.Getenv("SESSION_SERVICE_URL"))
	matchStore := store.NewMatchStore(database)
	matchmaking := service.NewMatchmaking(cfg, hub, sessions, matchStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go matchmaking.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(matchmaking, matchStore, hub),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-shutdownChan
	slog.Info("Shutdown signal received, shutting down gracefully")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server failed to shutdown gracefully", "error", err)
	}
	slog.Info("Shutdown complete")
}
