// Package asi provides a client for the ASI:One chat-completion API with
// support for both regular and agentic models.
package asi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is the hosted ASI:One endpoint.
const DefaultBaseURL = "https://api.asi1.ai/v1"

// Client talks to the ASI:One API. It maintains a per-conversation session
// map so agentic models keep marketplace sessions pinned across turns.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client

	mu       sync.Mutex
	sessions map[string]string // conversation ID -> session ID
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithTimeout overrides the default 90s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates an ASI:One client. It fails when the API key is empty,
// before any network call can be attempted.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ASI One API key is required: set ASI_ONE_API_KEY or pass the key explicitly")
	}

	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		client:   &http.Client{Timeout: 90 * time.Second},
		sessions: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SessionID returns the session ID for a conversation, creating one on
// first use.
func (c *Client) SessionID(conversationID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.sessions[conversationID]; ok {
		return id
	}
	id := uuid.New().String()
	c.sessions[conversationID] = id
	return id
}

// EndSession drops the session pinned to a conversation.
func (c *Client) EndSession(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, conversationID)
}

// ChatCompletion posts a chat-completion request. Agentic models require a
// conversation ID; the request is rejected before anything is sent when it
// is missing. Any non-200 status is an error carrying the response body.
func (c *Client) ChatCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ValidateModel(req.Model); err != nil {
		return nil, err
	}
	if IsAgenticModel(req.Model) && req.ConversationID == "" {
		return nil, fmt.Errorf("conversation_id is required for agentic model %q", req.Model)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if IsAgenticModel(req.Model) {
		httpReq.Header.Set("x-session-id", c.SessionID(req.ConversationID))
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("completion request returned %d: %s", resp.StatusCode, payload)
	}

	var out CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	return &out, nil
}
