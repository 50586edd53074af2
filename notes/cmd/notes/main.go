package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vocal-agents/vocal-stack/common/agenthttp"
	"github.com/vocal-agents/vocal-stack/common/agentrt"
	"github.com/vocal-agents/vocal-stack/common/config"
	"github.com/vocal-agents/vocal-stack/common/logging"
	"github.com/vocal-agents/vocal-stack/common/messaging"
	natsclient "github.com/vocal-agents/vocal-stack/common/messaging/nats"
	"github.com/vocal-agents/vocal-stack/notes/internal/agent"
	"github.com/vocal-agents/vocal-stack/notes/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("notes"))
	logging.SetDefault(logger)

	slog.Info("Starting notes agent", slog.Int("port", cfg.Notes.HTTPPort))

	var notes store.Store
	if cfg.Redis.Enabled {
		notes, err = store.NewRedis(cfg.Redis.URL)
		if err != nil {
			slog.Error("Failed to connect to Redis", logging.Error(err))
			os.Exit(1)
		}
		slog.Info("Notes persisted in Redis", slog.String("url", cfg.Redis.URL))
	} else {
		notes = store.NewMemory()
		slog.Warn("Redis disabled; notes will not survive a restart")
	}
	defer notes.Close()

	notesAgent := agent.New(notes)

	var bus messaging.Client
	var runtime *agentrt.Agent
	if cfg.NATS.Enabled {
		nc, err := natsclient.NewClient(natsclient.Config{
			URL:           cfg.NATS.URL,
			Name:          cfg.Notes.Name,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			Timeout:       5 * time.Second,
		})
		if err != nil {
			slog.Warn("Failed to connect to NATS (serving health endpoint only)",
				slog.String("url", cfg.NATS.URL), logging.Error(err))
		} else {
			bus = nc
			defer bus.Close()
			runtime, err = agentrt.New(bus, agentrt.Options{
				Name:            cfg.Notes.Name,
				Seed:            cfg.Notes.Seed,
				Capabilities:    []string{"create_note", "list_notes", "search_notes", "delete_note"},
				RateLimit:       rateLimitMax(cfg.Notes),
				RateLimitWindow: cfg.Notes.RateLimit.Window,
			})
			if err != nil {
				slog.Error("Failed to create agent runtime", logging.Error(err))
				os.Exit(1)
			}
			runtime.OnTask(notesAgent.HandleTask)
			// Re-announce so clients that attach later still discover us.
			runtime.OnInterval(5*time.Minute, func(ctx context.Context) {
				if err := runtime.Announce(ctx); err != nil {
					slog.Warn("Periodic announcement failed", logging.Error(err))
				}
			})
		}
	} else {
		slog.Info("NATS messaging disabled")
	}

	address := ""
	if runtime != nil {
		address = runtime.Address()
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Notes.HTTPPort),
		Handler:      agenthttp.NewRouter(cfg.Notes.Name, "Notes Agent is running and ready to take notes", address, bus),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runtime != nil {
		if err := runtime.Start(shutdownCtx); err != nil {
			slog.Error("Failed to start agent runtime", logging.Error(err))
			os.Exit(1)
		}
		slog.Info("Agent registered on bus",
			slog.String("name", runtime.Name()),
			slog.String("address", runtime.Address()),
		)
	}

	go func() {
		slog.Info("Notes agent HTTP endpoint listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	slog.Info("Shutdown signal received")

	if runtime != nil {
		if err := runtime.Stop(); err != nil {
			slog.Warn("Agent runtime shutdown error", logging.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("Graceful shutdown failed", logging.Error(err))
	}
}

func rateLimitMax(ac config.AgentConfig) int {
	if !ac.RateLimit.Enabled {
		return 0
	}
	return ac.RateLimit.MaxPerMin
}
