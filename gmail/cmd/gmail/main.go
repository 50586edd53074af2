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
	"github.com/vocal-agents/vocal-stack/common/oauthflow"
	"github.com/vocal-agents/vocal-stack/gmail/internal/agent"
	"github.com/vocal-agents/vocal-stack/gmail/internal/client"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("gmail"))
	logging.SetDefault(logger)

	slog.Info("Starting gmail agent", slog.Int("port", cfg.Gmail.HTTPPort))

	flow, err := oauthflow.NewFlow(oauthflow.ProviderGoogle, cfg.Google)
	if err != nil {
		slog.Error("Invalid Google OAuth configuration", logging.Error(err))
		os.Exit(1)
	}

	httpClient, err := flow.Client(context.Background())
	if err != nil {
		slog.Error("No Gmail credentials available", logging.Error(err))
		slog.Info("Run the setup flow first: vocal setup google")
		os.Exit(1)
	}
	gmailAgent := agent.New(client.NewClient(httpClient))

	var bus messaging.Client
	var runtime *agentrt.Agent
	if cfg.NATS.Enabled {
		nc, err := natsclient.NewClient(natsclient.Config{
			URL:           cfg.NATS.URL,
			Name:          cfg.Gmail.Name,
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
				Name:            cfg.Gmail.Name,
				Seed:            cfg.Gmail.Seed,
				Capabilities:    []string{"send_email", "read_emails", "search_emails"},
				RateLimit:       rateLimitMax(cfg.Gmail),
				RateLimitWindow: cfg.Gmail.RateLimit.Window,
			})
			if err != nil {
				slog.Error("Failed to create agent runtime", logging.Error(err))
				os.Exit(1)
			}
			runtime.OnTask(gmailAgent.HandleTask)
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
		Addr:         fmt.Sprintf(":%d", cfg.Gmail.HTTPPort),
		Handler:      agenthttp.NewRouter(cfg.Gmail.Name, "Gmail Agent is running and ready to send emails", address, bus),
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
		slog.Info("Gmail agent HTTP endpoint listening", slog.String("addr", srv.Addr))
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
