package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vocal-agents/vocal-stack/common/config"
	"github.com/vocal-agents/vocal-stack/common/logging"
	"github.com/vocal-agents/vocal-stack/common/messaging"
	natsclient "github.com/vocal-agents/vocal-stack/common/messaging/nats"
	"github.com/vocal-agents/vocal-stack/frontend/internal/handlers"
	"github.com/vocal-agents/vocal-stack/frontend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("frontend"))
	logging.SetDefault(logger)

	slog.Info("Starting frontend", slog.Int("port", cfg.Frontend.Port))

	var bus messaging.Publisher
	if cfg.NATS.Enabled {
		client, err := natsclient.NewClient(natsclient.Config{
			URL:           cfg.NATS.URL,
			Name:          "frontend",
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			Timeout:       5 * time.Second,
		})
		if err != nil {
			slog.Warn("Failed to connect to NATS (commands will only be echoed)",
				slog.String("url", cfg.NATS.URL), logging.Error(err))
		} else {
			slog.Info("Connected to NATS", slog.String("url", cfg.NATS.URL))
			bus = client
			defer client.Close()
		}
	} else {
		slog.Info("NATS messaging disabled")
	}

	h := handlers.New(bus, cfg.Mailbox.Name)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Frontend.Port),
		Handler:      server.NewRouter(h, cfg.Frontend.StaticDir),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Frontend listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("Graceful shutdown failed", logging.Error(err))
	}
}
