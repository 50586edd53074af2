package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vocal-agents/vocal-stack/asi"
	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/contextstore"
	"github.com/vocal-agents/vocal-stack/common/httputil"
	"github.com/vocal-agents/vocal-stack/common/messaging"
	"github.com/vocal-agents/vocal-stack/mailbox/internal/agent"
)

// Handler exposes the mailbox assistant over HTTP for callers that do not
// speak the bus protocol.
type Handler struct {
	assistant    *agent.Mailbox
	bus          messaging.Client
	address      string
	defaultModel string
}

// New wires a Handler. bus may be nil when the mailbox runs without
// messaging; health checks then skip the bus ping.
func New(assistant *agent.Mailbox, bus messaging.Client, address, defaultModel string) *Handler {
	return &Handler{assistant: assistant, bus: bus, address: address, defaultModel: defaultModel}
}

// ChatRequest is the POST /chat request body.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Model          string `json:"model,omitempty"`
}

// ChatResponse is the POST /chat response body.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	ModelUsed      string `json:"model_used"`
	Success        bool   `json:"success"`
	ErrorMessage   string `json:"error_message,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// HealthResponse is the body for / and /health.
type HealthResponse struct {
	Status       string                  `json:"status"`
	Message      string                  `json:"message"`
	Timestamp    string                  `json:"timestamp"`
	AgentAddress string                  `json:"agent_address,omitempty"`
	Bus          *messaging.HealthStatus `json:"bus,omitempty"`
}

// HealthCheck handles GET / and GET /health. A configured but unreachable
// bus turns the status to "degraded"; chat still works, task forwarding
// does not.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := HealthResponse{
		Status:       "healthy",
		Message:      "Intelligent Mailbox Agent is running with ASI:One integration",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		AgentAddress: h.address,
	}
	if h.bus != nil {
		st := messaging.CheckClientHealth(r.Context(), h.bus)
		body.Bus = &st
		if !st.Connected {
			body.Status = "degraded"
		}
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := httputil.DecodeJSON(r, &req, 0); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Message content is required")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	model := req.Model
	if model == "" {
		model = h.defaultModel
	}

	msg := chatproto.NewChatMessage(conversationID, req.Message)
	msg.Model = model

	reply, err := h.assistant.Respond(r.Context(), msg)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, ChatResponse{
			ConversationID: conversationID,
			ModelUsed:      model,
			Success:        false,
			ErrorMessage:   err.Error(),
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ChatResponse{
		Response:       reply,
		ConversationID: conversationID,
		ModelUsed:      model,
		Success:        true,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

// defaultHistoryLimit caps /history responses when no limit is given.
const defaultHistoryLimit = 20

// HistoryResponse is the GET /history response body.
type HistoryResponse struct {
	ConversationID string               `json:"conversation_id"`
	Count          int                  `json:"count"`
	History        []contextstore.Entry `json:"history"`
}

// History handles GET /history. It returns the most recent turns of a
// conversation, newest last, capped by the limit query parameter.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	conversationID := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if conversationID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "conversation_id query parameter is required")
		return
	}
	limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), defaultHistoryLimit)

	entries, err := h.assistant.History(r.Context(), conversationID, limit)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load conversation history: "+err.Error())
		return
	}
	if entries == nil {
		entries = []contextstore.Entry{}
	}

	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{
		ConversationID: conversationID,
		Count:          len(entries),
		History:        entries,
	})
}

// Models handles GET /models.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"regular_models": asi.RegularModels,
		"agentic_models": asi.AgenticModels,
		"recommended":    "asi1-fast-agentic",
		"default":        h.defaultModel,
	})
}
