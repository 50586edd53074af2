// Package client is a thin REST client for the Google Calendar API,
// covering event creation and listing on the primary calendar.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

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

// EventTime is a point in time on the calendar wire format.
type EventTime struct {
	DateTime time.Time `json:"dateTime"`
	TimeZone string    `json:"timeZone,omitempty"`
}

// Attendee is one invited participant.
type Attendee struct {
	Email string `json:"email"`
}

// Event is a calendar event.
type Event struct {
	ID          string     `json:"id,omitempty"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Start       EventTime  `json:"start"`
	End         EventTime  `json:"end"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
	Status      string     `json:"status,omitempty"`
}

type eventList struct {
	Items []Event `json:"items"`
}

// CreateEvent inserts an event into the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, event Event) (*Event, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	var created Event
	if err := c.post(ctx, "/calendars/primary/events", payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListEvents returns upcoming events on the primary calendar, soonest
// first, starting from the given time.
func (c *Client) ListEvents(ctx context.Context, from time.Time, max int) ([]Event, error) {
	if max <= 0 {
		max = 10
	}
	params := url.Values{
		"timeMin":      {from.Format(time.RFC3339)},
		"maxResults":   {strconv.Itoa(max)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	}

	var list eventList
	if err := c.get(ctx, "/calendars/primary/events?"+params.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Items, nil
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
		return fmt.Errorf("calendar API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
