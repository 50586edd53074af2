package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VOCAL_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.asi1.ai/v1", cfg.ASI.BaseURL)
	assert.Equal(t, "asi1-mini", cfg.ASI.Model)
	assert.Equal(t, "mailbox", cfg.Mailbox.Name)
	assert.Equal(t, 8001, cfg.Mailbox.HTTPPort)
	assert.Equal(t, "gmail", cfg.Gmail.Name)
	assert.Equal(t, "discord", cfg.DiscordA.Name)
	assert.Equal(t, 8006, cfg.DiscordA.HTTPPort)
	assert.Equal(t, "notes", cfg.Notes.Name)
	assert.Equal(t, 8007, cfg.Notes.HTTPPort)
	assert.Equal(t, "identify guilds", cfg.Discord.Scopes)
	assert.Equal(t, 5001, cfg.Frontend.Port)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.True(t, cfg.NATS.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 20, cfg.Redis.Window)
	assert.Equal(t, 30, cfg.Mailbox.RateLimit.MaxPerMin)
	assert.Equal(t, "https://localhost:8889/callback", cfg.Spotify.RedirectURI)
	assert.Equal(t,
		"playlist-modify-public playlist-modify-private playlist-read-private user-library-read",
		cfg.Spotify.Scopes)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
asi:
  api_key: file-key
  model: asi1-fast-agentic
mailbox:
  http_port: 9100
nats:
  enabled: false
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0600))
	t.Setenv("VOCAL_CONFIG_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.ASI.APIKey)
	assert.Equal(t, "asi1-fast-agentic", cfg.ASI.Model)
	assert.Equal(t, 9100, cfg.Mailbox.HTTPPort)
	assert.False(t, cfg.NATS.Enabled)
}

func TestVendorEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("asi:\n  api_key: file-key\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0600))
	t.Setenv("VOCAL_CONFIG_DIR", dir)
	t.Setenv("ASI_ONE_API_KEY", "env-key")
	t.Setenv("SPOTIFY_CLIENT_ID", "spotify-app")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.ASI.APIKey)
	assert.Equal(t, "spotify-app", cfg.Spotify.ClientID)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{broken"), 0600))
	t.Setenv("VOCAL_CONFIG_DIR", dir)

	_, err := Load()
	require.Error(t, err)
}

func TestASIConfigValidate(t *testing.T) {
	err := ASIConfig{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASI_ONE_API_KEY")

	assert.NoError(t, ASIConfig{APIKey: "key"}.Validate())
}

func TestOAuthConfigValidate(t *testing.T) {
	valid := OAuthConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURI:  "https://localhost:8889/callback",
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.ClientSecret = ""
	require.Error(t, missing.Validate())

	noRedirect := valid
	noRedirect.RedirectURI = ""
	require.Error(t, noRedirect.Validate())
}

func TestOAuthConfigScopeList(t *testing.T) {
	cfg := OAuthConfig{Scopes: "chat:write channels:read"}
	assert.Equal(t, []string{"chat:write", "channels:read"}, cfg.ScopeList())
	assert.Empty(t, OAuthConfig{}.ScopeList())
}
