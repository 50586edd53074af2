package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vocal-agents/vocal-stack/common/middleware"
	"github.com/vocal-agents/vocal-stack/frontend/internal/handlers"
)

// NewRouter constructs a ServeMux with the frontend routes registered.
// staticDir, when non-empty, is served under /static/ for the page's
// scripts and styles.
func NewRouter(h *handlers.Handler, staticDir string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", h.Index)
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/process_voice", h.ProcessVoice)
	mux.Handle("/metrics", promhttp.Handler())
	if staticDir != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	return middleware.RequestID(mux)
}
