// Package client is a thin REST client for the Spotify Web API, covering
// profile lookup, track search and playlist management.
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
)

const defaultBaseURL = "https://api.spotify.com/v1"

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

// User is the authenticated Spotify account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Playlist is a created or fetched playlist.
type Playlist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Public       bool              `json:"public"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// URL returns the playlist's public Spotify URL.
func (p *Playlist) URL() string {
	return p.ExternalURLs["spotify"]
}

// Artist names a track's performer.
type Artist struct {
	Name string `json:"name"`
}

// Track is one search result.
type Track struct {
	Name    string   `json:"name"`
	URI     string   `json:"uri"`
	Artists []Artist `json:"artists"`
}

// ArtistNames joins the track's artists for display.
func (t *Track) ArtistNames() string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

type searchResponse struct {
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

// CurrentUser fetches the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchTracks searches the catalog for tracks matching the query.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}

	var result searchResponse
	if err := c.get(ctx, "/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result.Tracks.Items, nil
}

// CreatePlaylist creates an empty playlist on the user's account.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*Playlist, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"name":        name,
		"description": description,
		"public":      public,
	})
	if err != nil {
		return nil, err
	}

	var playlist Playlist
	if err := c.post(ctx, "/users/"+url.PathEscape(userID)+"/playlists", payload, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracks appends tracks to a playlist by URI.
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	payload, err := json.Marshal(map[string]interface{}{"uris": uris})
	if err != nil {
		return err
	}
	return c.post(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", payload, nil)
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
		return fmt.Errorf("spotify API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
