package oauthflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenCache persists an OAuth token as JSON at a fixed path (such as
// .spotify_cache), mirroring the vendor SDK cache files the original
// deployment used.
type TokenCache struct {
	Path string
}

// NewTokenCache creates a cache at the given path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{Path: path}
}

// Load reads the cached token. Returns an error when no token is cached.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token cache %s: %w", c.Path, err)
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions.
func (c *TokenCache) Save(tok *oauth2.Token) error {
	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path, data, 0600)
}
