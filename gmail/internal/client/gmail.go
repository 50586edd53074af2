// Package client is a thin REST client for the Gmail API, covering the
// operations the gmail agent needs: profile lookup, sending, listing and
// reading messages.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient wraps an OAuth-authenticated HTTP client.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// Profile is the authenticated mailbox's profile.
type Profile struct {
	EmailAddress  string `json:"emailAddress"`
	MessagesTotal int    `json:"messagesTotal"`
	ThreadsTotal  int    `json:"threadsTotal"`
}

// APIError is a non-2xx reply from the Gmail API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gmail API error: %d - %s", e.StatusCode, e.Body)
}

// SentMessage is the API's reply to a send call.
type SentMessage struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	LabelIDs []string `json:"labelIds"`
}

// MessageRef identifies one message in a list result.
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type listResponse struct {
	Messages           []MessageRef `json:"messages"`
	ResultSizeEstimate int          `json:"resultSizeEstimate"`
}

// MessageSummary is the metadata view of one message.
type MessageSummary struct {
	ID      string
	From    string
	To      string
	Subject string
	Date    string
	Snippet string
}

type messageResponse struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
	Payload struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
}

// GetProfile fetches the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, "/users/me/profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SendMessage sends a plain-text email as the authenticated user. The
// message is assembled as RFC 2822 text and submitted base64url-encoded,
// as the API requires. An empty from falls back to the profile address;
// an empty cc omits the header.
func (c *Client) SendMessage(ctx context.Context, from, to, cc, subject, body string) (*SentMessage, error) {
	if from == "" {
		profile, err := c.GetProfile(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve sender address: %w", err)
		}
		from = profile.EmailAddress
	}

	var raw bytes.Buffer
	fmt.Fprintf(&raw, "From: %s\r\n", from)
	fmt.Fprintf(&raw, "To: %s\r\n", to)
	if cc != "" {
		fmt.Fprintf(&raw, "Cc: %s\r\n", cc)
	}
	fmt.Fprintf(&raw, "Subject: %s\r\n", subject)
	raw.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	raw.WriteString("\r\n")
	raw.WriteString(body)

	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString(raw.Bytes()),
	})
	if err != nil {
		return nil, err
	}

	var sent SentMessage
	if err := c.post(ctx, "/users/me/messages/send", payload, &sent); err != nil {
		return nil, err
	}
	return &sent, nil
}

// ListMessages returns message references matching the Gmail search query.
// An empty query lists the most recent messages.
func (c *Client) ListMessages(ctx context.Context, query string, max int) ([]MessageRef, error) {
	if max <= 0 {
		max = 5
	}
	params := url.Values{"maxResults": {strconv.Itoa(max)}}
	if query != "" {
		params.Set("q", query)
	}

	var list listResponse
	if err := c.get(ctx, "/users/me/messages?"+params.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Messages, nil
}

// GetMessage fetches the metadata view of one message.
func (c *Client) GetMessage(ctx context.Context, id string) (*MessageSummary, error) {
	params := url.Values{
		"format":          {"metadata"},
		"metadataHeaders": {"From", "To", "Subject", "Date"},
	}

	var msg messageResponse
	if err := c.get(ctx, "/users/me/messages/"+url.PathEscape(id)+"?"+params.Encode(), &msg); err != nil {
		return nil, err
	}

	summary := &MessageSummary{ID: msg.ID, Snippet: msg.Snippet}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			summary.From = h.Value
		case "To":
			summary.To = h.Value
		case "Subject":
			summary.Subject = h.Value
		case "Date":
			summary.Date = h.Value
		}
	}
	return summary, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
