// Package handlers implements the web frontend stub: a static landing page
// and the small JSON API the voice UI talks to.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/httputil"
	"github.com/vocal-agents/vocal-stack/common/logging"
	"github.com/vocal-agents/vocal-stack/common/messaging"
)

// forwardTimeout bounds how long a voice command waits for the mailbox
// agent before answering with the echo response only.
const forwardTimeout = 30 * time.Second

type Handler struct {
	bus          messaging.Publisher
	mailboxAgent string
	logger       *logging.Logger
}

// New builds the frontend handler. bus may be nil; commands are then only
// echoed, not forwarded.
func New(bus messaging.Publisher, mailboxAgent string) *Handler {
	return &Handler{
		bus:          bus,
		mailboxAgent: mailboxAgent,
		logger:       logging.Default(),
	}
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Vocal Agent Frontend is running",
		"version": "1.0.0",
	})
}

// VoiceRequest is the POST /api/process_voice request body.
type VoiceRequest struct {
	Command        string `json:"command"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// VoiceResponse is the POST /api/process_voice response body.
type VoiceResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ProcessedCommand string `json:"processed_command"`
	AgentResponse    string `json:"agent_response"`
}

// ProcessVoice handles POST /api/process_voice. The command is echoed
// back; when the bus is connected it is also forwarded to the mailbox
// agent and the reply included.
func (h *Handler) ProcessVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req VoiceRequest
	if err := httputil.DecodeJSON(r, &req, 0); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Command == "" {
		httputil.WriteError(w, http.StatusBadRequest, "No command provided")
		return
	}

	h.logger.Info("received voice command", logging.Conversation(req.ConversationID))

	resp := VoiceResponse{
		Success:          true,
		Message:          "Received command: " + req.Command,
		ProcessedCommand: req.Command,
		AgentResponse:    "Mailbox agent is not connected; command was not executed",
	}
	if h.bus != nil {
		resp.AgentResponse = h.forward(r.Context(), req)
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// forward sends the command to the mailbox agent over the bus and returns
// its reply, or a description of the failure.
func (h *Handler) forward(ctx context.Context, req VoiceRequest) string {
	msg := chatproto.NewChatMessage(req.ConversationID, req.Command)
	payload, err := json.Marshal(msg)
	if err != nil {
		return "failed to encode command: " + err.Error()
	}

	reply, err := h.bus.Request(ctx, messaging.ChatSubject(h.mailboxAgent), payload, forwardTimeout)
	if err != nil {
		h.logger.Warn("mailbox agent did not respond", logging.Error(err))
		return "the assistant did not respond: " + err.Error()
	}

	var chatResp chatproto.ChatResponse
	if err := json.Unmarshal(reply.Data, &chatResp); err != nil {
		return "unreadable reply from the assistant"
	}
	if !chatResp.Success {
		return "the assistant reported an error: " + chatResp.Error
	}
	return chatResp.Text
}

// Index handles GET /, serving the landing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>Vocal Agent</title></head>
<body>
<h1>Vocal Agent Frontend</h1>
<p>POST a JSON body {"command": "..."} to /api/process_voice to talk to the assistant.</p>
</body>
</html>
`
