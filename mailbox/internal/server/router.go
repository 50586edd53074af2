package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vocal-agents/vocal-stack/common/middleware"
	"github.com/vocal-agents/vocal-stack/mailbox/internal/handlers"
)

// NewRouter constructs a ServeMux with the mailbox API routes registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		h.HealthCheck(w, r)
	})
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/chat", h.Chat)
	mux.HandleFunc("/history", h.History)
	mux.HandleFunc("/models", h.Models)
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
