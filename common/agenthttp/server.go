// Package agenthttp provides the small HTTP surface every service agent
// exposes: a health endpoint and Prometheus metrics. The mailbox agent has
// a richer API and carries its own handlers instead.
package agenthttp

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vocal-agents/vocal-stack/common/httputil"
	"github.com/vocal-agents/vocal-stack/common/messaging"
	"github.com/vocal-agents/vocal-stack/common/middleware"
)

// Health is the body for / and /health.
type Health struct {
	AgentName    string                  `json:"agent_name"`
	Status       string                  `json:"status"`
	Message      string                  `json:"message"`
	AgentAddress string                  `json:"agent_address,omitempty"`
	Bus          *messaging.HealthStatus `json:"bus,omitempty"`
	Timestamp    string                  `json:"timestamp"`
}

// NewRouter builds the agent's HTTP handler. message describes what the
// agent is ready to do; address may be empty when the agent runs without
// a bus identity. bus, when non-nil, is pinged on every health request and
// a lost connection flips the status to "degraded".
func NewRouter(agentName, message, address string, bus messaging.Client) http.Handler {
	health := func(w http.ResponseWriter, r *http.Request) {
		body := Health{
			AgentName:    agentName,
			Status:       "healthy",
			Message:      message,
			AgentAddress: address,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		}
		if bus != nil {
			st := messaging.CheckClientHealth(r.Context(), bus)
			body.Bus = &st
			if !st.Connected {
				body.Status = "degraded"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		health(w, r)
	})
	mux.HandleFunc("/health", health)
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
