package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-agents/vocal-stack/asi"
	"github.com/vocal-agents/vocal-stack/common/contextstore"
	"github.com/vocal-agents/vocal-stack/common/messaging"
	"github.com/vocal-agents/vocal-stack/mailbox/internal/agent"
)

// stubBus is a messaging.Client with a fixed connection state.
type stubBus struct {
	connected bool
}

func (s *stubBus) Publish(ctx context.Context, subject string, data []byte) error { return nil }
func (s *stubBus) PublishMsg(ctx context.Context, msg *messaging.Message) error   { return nil }

func (s *stubBus) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*messaging.Message, error) {
	return &messaging.Message{Subject: subject}, nil
}

func (s *stubBus) Subscribe(subject string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	return nil, nil
}

func (s *stubBus) QueueSubscribe(subject, queue string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	return nil, nil
}

func (s *stubBus) Close() error      { return nil }
func (s *stubBus) Drain() error      { return nil }
func (s *stubBus) IsConnected() bool { return s.connected }

func newTestHandler(t *testing.T) *Handler {
	return newTestHandlerWithBus(t, nil)
}

func newTestHandlerWithBus(t *testing.T, bus messaging.Client) *Handler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(asi.CompletionResponse{
			Choices: []asi.Choice{{Message: asi.Message{Role: "assistant", Content: "Hello!"}}},
		})
	}))
	t.Cleanup(srv.Close)

	client, err := asi.NewClient("test-key", asi.WithBaseURL(srv.URL))
	require.NoError(t, err)

	assistant := agent.New(client, contextstore.NewMemory(10), nil, "asi1-mini", time.Second)
	return New(assistant, bus, "agent1testaddress", "asi1-mini")
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "agent1testaddress", body.AgentAddress)
	assert.Nil(t, body.Bus)
}

func TestHealthCheckReportsConnectedBus(t *testing.T) {
	h := newTestHandlerWithBus(t, &stubBus{connected: true})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	require.NotNil(t, body.Bus)
	assert.True(t, body.Bus.Connected)
}

func TestHealthCheckDegradedWhenBusDown(t *testing.T) {
	h := newTestHandlerWithBus(t, &stubBus{connected: false})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	require.NotNil(t, body.Bus)
	assert.False(t, body.Bus.Connected)
	assert.Equal(t, "not connected to message bus", body.Bus.Error)
}

func TestChatRequiresMessage(t *testing.T) {
	h := newTestHandler(t)

	payload, _ := json.Marshal(ChatRequest{Message: "   "})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatAssignsConversationID(t *testing.T) {
	h := newTestHandler(t)

	payload, _ := json.Marshal(ChatRequest{Message: "hi there"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Hello!", body.Response)
	assert.NotEmpty(t, body.ConversationID)
	assert.Equal(t, "asi1-mini", body.ModelUsed)
}

func TestChatRejectsInvalidModel(t *testing.T) {
	h := newTestHandler(t)

	payload, _ := json.Marshal(ChatRequest{Message: "hi", Model: "bogus-model"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.ErrorMessage, "invalid model")
}

func TestHistoryRequiresConversationID(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.History(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryReturnsConversationTurns(t *testing.T) {
	h := newTestHandler(t)

	payload, _ := json.Marshal(ChatRequest{Message: "hi there", ConversationID: "conv-7"})
	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.History(rec, httptest.NewRequest(http.MethodGet, "/history?conversation_id=conv-7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "conv-7", body.ConversationID)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "user", body.History[0].Role)
	assert.Equal(t, "hi there", body.History[0].Content)
	assert.Equal(t, "assistant", body.History[1].Role)
	assert.Equal(t, "Hello!", body.History[1].Content)
}

func TestHistoryHonorsLimit(t *testing.T) {
	h := newTestHandler(t)

	for i := 0; i < 3; i++ {
		payload, _ := json.Marshal(ChatRequest{Message: "hi again", ConversationID: "conv-8"})
		rec := httptest.NewRecorder()
		h.Chat(rec, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload)))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.History(rec, httptest.NewRequest(http.MethodGet, "/history?conversation_id=conv-8&limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	// The newest turns survive the cut.
	assert.Equal(t, "assistant", body.History[1].Role)
}

func TestHistoryUnknownConversationIsEmpty(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.History(rec, httptest.NewRequest(http.MethodGet, "/history?conversation_id=nope", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Count)
	assert.NotNil(t, body.History)
}

func TestModels(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rec := httptest.NewRecorder()
	h.Models(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "asi1-mini", body["default"])
	assert.Contains(t, body["agentic_models"], "asi1-fast-agentic")
}
