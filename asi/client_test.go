package asi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestValidateModel(t *testing.T) {
	for _, model := range RegularModels {
		assert.NoError(t, ValidateModel(model))
	}
	for _, model := range AgenticModels {
		assert.NoError(t, ValidateModel(model))
	}

	err := ValidateModel("gpt-4o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestIsAgenticModel(t *testing.T) {
	assert.True(t, IsAgenticModel("asi1-fast-agentic"))
	assert.False(t, IsAgenticModel("asi1-mini"))
}

func TestChatCompletionRejectsInvalidModelBeforeSending(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client, err := NewClient("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.ChatCompletion(context.Background(), CompletionRequest{
		Model:    "not-a-model",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
	assert.False(t, called)
}

func TestChatCompletionAgenticRequiresConversationID(t *testing.T) {
	client, err := NewClient("test-key")
	require.NoError(t, err)

	_, err = client.ChatCompletion(context.Background(), CompletionRequest{
		Model:    "asi1-agentic",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversation_id is required")
}

func TestChatCompletionSendsSessionHeaderForAgenticModels(t *testing.T) {
	var gotAuth, gotSession string
	var gotReq CompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.Header.Get("x-session-id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(CompletionResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: "hello there"}}},
		})
	}))
	defer srv.Close()

	client, err := NewClient("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := client.ChatCompletion(context.Background(), CompletionRequest{
		Model:          "asi1-fast-agentic",
		Messages:       []Message{{Role: "user", Content: "hi"}},
		ConversationID: "conv-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Text())
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, client.SessionID("conv-1"), gotSession)
	assert.Equal(t, "asi1-fast-agentic", gotReq.Model)
}

func TestChatCompletionOmitsSessionHeaderForRegularModels(t *testing.T) {
	var gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get("x-session-id")
		json.NewEncoder(w).Encode(CompletionResponse{
			Choices: []Choice{{Message: Message{Content: "ok"}}},
		})
	}))
	defer srv.Close()

	client, err := NewClient("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.ChatCompletion(context.Background(), CompletionRequest{
		Model:    "asi1-mini",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Empty(t, gotSession)
}

func TestChatCompletionSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.ChatCompletion(context.Background(), CompletionRequest{
		Model:    "asi1-mini",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSessionIDStableUntilEnded(t *testing.T) {
	client, err := NewClient("test-key")
	require.NoError(t, err)

	first := client.SessionID("conv-9")
	assert.Equal(t, first, client.SessionID("conv-9"))
	assert.NotEqual(t, first, client.SessionID("conv-other"))

	client.EndSession("conv-9")
	assert.NotEqual(t, first, client.SessionID("conv-9"))
}

func TestCompletionResponseTextEmptyChoices(t *testing.T) {
	var resp CompletionResponse
	assert.Empty(t, resp.Text())
}
