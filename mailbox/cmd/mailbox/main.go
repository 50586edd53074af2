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

	"github.com/vocal-agents/vocal-stack/asi"
	"github.com/vocal-agents/vocal-stack/common/agentrt"
	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/config"
	"github.com/vocal-agents/vocal-stack/common/contextstore"
	"github.com/vocal-agents/vocal-stack/common/logging"
	"github.com/vocal-agents/vocal-stack/common/messaging"
	natsclient "github.com/vocal-agents/vocal-stack/common/messaging/nats"
	"github.com/vocal-agents/vocal-stack/mailbox/internal/agent"
	"github.com/vocal-agents/vocal-stack/mailbox/internal/handlers"
	"github.com/vocal-agents/vocal-stack/mailbox/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("mailbox"))
	logging.SetDefault(logger)

	if err := cfg.ASI.Validate(); err != nil {
		slog.Error("Invalid ASI configuration", logging.Error(err))
		os.Exit(1)
	}

	asiClient, err := asi.NewClient(cfg.ASI.APIKey,
		asi.WithBaseURL(cfg.ASI.BaseURL),
		asi.WithTimeout(cfg.ASI.Timeout),
	)
	if err != nil {
		slog.Error("Failed to create ASI client", logging.Error(err))
		os.Exit(1)
	}

	slog.Info("Starting mailbox agent",
		slog.Int("port", cfg.Mailbox.HTTPPort),
		slog.String("model", cfg.ASI.Model),
	)

	history := buildHistoryStore(cfg)
	defer history.Close()

	// NATS is optional: without it the assistant still answers chat but
	// cannot forward tasks to the service agents.
	var bus messaging.Client
	if cfg.NATS.Enabled {
		natsCfg := natsclient.Config{
			URL:           cfg.NATS.URL,
			Name:          cfg.Mailbox.Name,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			Timeout:       5 * time.Second,
		}
		client, err := natsclient.NewClient(natsCfg)
		if err != nil {
			slog.Warn("Failed to connect to NATS (continuing without bus)",
				slog.String("url", cfg.NATS.URL), logging.Error(err))
		} else {
			slog.Info("Connected to NATS", slog.String("url", cfg.NATS.URL))
			bus = client
			defer client.Close()
		}
	} else {
		slog.Info("NATS messaging disabled")
	}

	var busPublisher messaging.Publisher
	if bus != nil {
		busPublisher = bus
	}
	assistant := agent.New(asiClient, history, busPublisher, cfg.ASI.Model, cfg.Mailbox.Timeout)

	var runtime *agentrt.Agent
	if bus != nil {
		runtime, err = agentrt.New(bus, agentrt.Options{
			Name:            cfg.Mailbox.Name,
			Seed:            cfg.Mailbox.Seed,
			Capabilities:    []string{"chat", "routing"},
			RateLimit:       rateLimitMax(cfg.Mailbox),
			RateLimitWindow: cfg.Mailbox.RateLimit.Window,
		})
		if err != nil {
			slog.Error("Failed to create agent runtime", logging.Error(err))
			os.Exit(1)
		}
		runtime.OnChat(func(ctx context.Context, sender string, msg chatproto.ChatMessage) (string, error) {
			return assistant.Respond(ctx, msg)
		})
		// Re-announce so clients that attach later still discover us.
		runtime.OnInterval(5*time.Minute, func(ctx context.Context) {
			if err := runtime.Announce(ctx); err != nil {
				slog.Warn("Periodic announcement failed", logging.Error(err))
			}
		})
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Mailbox.HTTPPort),
		Handler:      server.NewRouter(buildHandler(assistant, bus, runtime, cfg)),
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
		slog.Info("Mailbox HTTP endpoint listening", slog.String("addr", srv.Addr))
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

func buildHistoryStore(cfg *config.Config) contextstore.Store {
	if cfg.Redis.Enabled {
		store, err := contextstore.NewRedis(cfg.Redis.URL, cfg.Redis.Window, cfg.Redis.TTL)
		if err != nil {
			slog.Warn("Failed to connect to Redis, using in-memory history",
				slog.String("url", cfg.Redis.URL), logging.Error(err))
		} else {
			slog.Info("Using Redis conversation history", slog.String("url", cfg.Redis.URL))
			return store
		}
	}
	return contextstore.NewMemory(cfg.Redis.Window)
}

func buildHandler(assistant *agent.Mailbox, bus messaging.Client, runtime *agentrt.Agent, cfg *config.Config) *handlers.Handler {
	address := ""
	if runtime != nil {
		address = runtime.Address()
	}
	return handlers.New(assistant, bus, address, cfg.ASI.Model)
}

func rateLimitMax(ac config.AgentConfig) int {
	if !ac.RateLimit.Enabled {
		return 0
	}
	return ac.RateLimit.MaxPerMin
}
