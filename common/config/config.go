// Package config provides centralized configuration management for all
// Vocal Stack services.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the master configuration struct containing all service configs
// and shared infrastructure.
type Config struct {
	// Vendor API configurations
	ASI     ASIConfig     `mapstructure:"asi"`
	Spotify OAuthConfig   `mapstructure:"spotify"`
	Slack   OAuthConfig   `mapstructure:"slack"`
	Google  OAuthConfig   `mapstructure:"google"`
	Discord DiscordConfig `mapstructure:"discord"`

	// Agent service configurations
	Mailbox  AgentConfig    `mapstructure:"mailbox"`
	Gmail    AgentConfig    `mapstructure:"gmail"`
	SpotifyA AgentConfig    `mapstructure:"spotify_agent"`
	SlackA   AgentConfig    `mapstructure:"slack_agent"`
	Calendar AgentConfig    `mapstructure:"calendar_agent"`
	DiscordA AgentConfig    `mapstructure:"discord_agent"`
	Notes    AgentConfig    `mapstructure:"notes_agent"`
	Frontend FrontendConfig `mapstructure:"frontend"`

	// Shared infrastructure configurations
	NATS    NATSConfig    `mapstructure:"nats"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ASIConfig holds ASI:One chat-completion API settings.
type ASIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Validate checks that the ASI configuration is usable. Callers must abort
// before making any network call when this fails.
func (c ASIConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("ASI One API key is required: set ASI_ONE_API_KEY")
	}
	return nil
}

// OAuthConfig holds OAuth application credentials for a vendor API.
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	Scopes       string `mapstructure:"scopes"`
	CachePath    string `mapstructure:"cache_path"`
}

// Validate checks that the OAuth app credentials are complete.
func (c OAuthConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("OAuth client credentials are not configured")
	}
	if c.RedirectURI == "" {
		return fmt.Errorf("OAuth redirect URI is not configured")
	}
	return nil
}

// ScopeList returns the configured scopes split on spaces.
func (c OAuthConfig) ScopeList() []string {
	return strings.Fields(c.Scopes)
}

// DiscordConfig holds the Discord OAuth app credentials plus the guild the
// agent searches when resolving usernames to user IDs.
type DiscordConfig struct {
	OAuthConfig `mapstructure:",squash"`
	GuildID     string `mapstructure:"guild_id"`
}

// AgentConfig holds per-agent settings: identity seed, HTTP surface and
// request quota.
type AgentConfig struct {
	Name      string        `mapstructure:"name"`
	Seed      string        `mapstructure:"seed"`
	HTTPPort  int           `mapstructure:"http_port"`
	RateLimit RateLimit     `mapstructure:"rate_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RateLimit bounds how many requests a single sender may issue per window.
type RateLimit struct {
	Enabled   bool          `mapstructure:"enabled"`
	MaxPerMin int           `mapstructure:"max_per_minute"`
	Window    time.Duration `mapstructure:"window"`
}

// FrontendConfig holds the web frontend stub configuration.
type FrontendConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// ServerConfig holds HTTP server timeouts shared by all services.
type ServerConfig struct {
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// NATSConfig holds message bus configuration.
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Enabled       bool          `mapstructure:"enabled"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// RedisConfig holds the conversation context store configuration.
type RedisConfig struct {
	URL     string        `mapstructure:"url"`
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Window  int           `mapstructure:"window"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from $VOCAL_CONFIG_DIR/config.yaml and environment
// variables. Environment variables override file values; the vendor variables
// from the original deployment (ASI_ONE_API_KEY, SPOTIFY_CLIENT_ID, ...) are
// bound explicitly.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configDir := os.Getenv("VOCAL_CONFIG_DIR")
	if configDir == "" {
		configDir = "/etc/vocal"
	}
	v.SetConfigFile(fmt.Sprintf("%s/config.yaml", configDir))
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindVendorEnv(v)

	// Config file is optional; defaults and env vars carry a bare deployment.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindVendorEnv maps the environment variables the original deployment used
// onto config keys.
func bindVendorEnv(v *viper.Viper) {
	_ = v.BindEnv("asi.api_key", "ASI_ONE_API_KEY")
	_ = v.BindEnv("spotify.client_id", "SPOTIFY_CLIENT_ID")
	_ = v.BindEnv("spotify.client_secret", "SPOTIFY_CLIENT_SECRET")
	_ = v.BindEnv("spotify.redirect_uri", "SPOTIFY_REDIRECT_URI")
	_ = v.BindEnv("slack.client_id", "SLACK_CLIENT_ID")
	_ = v.BindEnv("slack.client_secret", "SLACK_CLIENT_SECRET")
	_ = v.BindEnv("slack.redirect_uri", "SLACK_REDIRECT_URI")
	_ = v.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	_ = v.BindEnv("google.redirect_uri", "GOOGLE_REDIRECT_URI")
	_ = v.BindEnv("discord.client_id", "DISCORD_CLIENT_ID")
	_ = v.BindEnv("discord.client_secret", "DISCORD_CLIENT_SECRET")
	_ = v.BindEnv("discord.redirect_uri", "DISCORD_REDIRECT_URI")
	_ = v.BindEnv("discord.guild_id", "DISCORD_GUILD_ID")
	_ = v.BindEnv("frontend.port", "HTTP_PORT")
	_ = v.BindEnv("mailbox.http_port", "PORT")
	_ = v.BindEnv("mailbox.name", "AGENT_NAME")
	_ = v.BindEnv("mailbox.seed", "AGENT_SEED")
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// ASI:One defaults
	v.SetDefault("asi.base_url", "https://api.asi1.ai/v1")
	v.SetDefault("asi.model", "asi1-mini")
	v.SetDefault("asi.timeout", "90s")

	// Spotify OAuth defaults; the scope string must match the values the
	// Spotify app was registered with.
	v.SetDefault("spotify.redirect_uri", "https://localhost:8889/callback")
	v.SetDefault("spotify.scopes", "playlist-modify-public playlist-modify-private playlist-read-private user-library-read")
	v.SetDefault("spotify.cache_path", ".spotify_cache")

	// Slack OAuth defaults
	v.SetDefault("slack.redirect_uri", "https://localhost:8080/callback")
	v.SetDefault("slack.scopes", "chat:write channels:read channels:history users:read")
	v.SetDefault("slack.cache_path", ".slack_cache")

	// Google OAuth defaults (Gmail + Calendar share one app)
	v.SetDefault("google.redirect_uri", "https://localhost:8890/callback")
	v.SetDefault("google.scopes", "https://www.googleapis.com/auth/gmail.modify https://www.googleapis.com/auth/calendar")
	v.SetDefault("google.cache_path", ".google_cache")

	// Discord OAuth defaults; the basic scopes need no app review.
	v.SetDefault("discord.redirect_uri", "http://localhost:8080/callback")
	v.SetDefault("discord.scopes", "identify guilds")
	v.SetDefault("discord.cache_path", ".discord_cache")

	// Agent defaults
	v.SetDefault("mailbox.name", "mailbox")
	v.SetDefault("mailbox.seed", "intelligent_mailbox_agent_seed_phrase_here")
	v.SetDefault("mailbox.http_port", 8001)
	v.SetDefault("gmail.name", "gmail")
	v.SetDefault("gmail.seed", "gmail_agent_seed")
	v.SetDefault("gmail.http_port", 8002)
	v.SetDefault("calendar_agent.name", "calendar")
	v.SetDefault("calendar_agent.seed", "calendar_agent_seed")
	v.SetDefault("calendar_agent.http_port", 8003)
	v.SetDefault("slack_agent.name", "slack")
	v.SetDefault("slack_agent.seed", "slack_agent_seed")
	v.SetDefault("slack_agent.http_port", 8004)
	v.SetDefault("spotify_agent.name", "spotify")
	v.SetDefault("spotify_agent.seed", "spotify_playlist_agent_unique_seed_2024")
	v.SetDefault("spotify_agent.http_port", 8005)
	v.SetDefault("discord_agent.name", "discord")
	v.SetDefault("discord_agent.seed", "discord_agent_seed")
	v.SetDefault("discord_agent.http_port", 8006)
	v.SetDefault("notes_agent.name", "notes")
	v.SetDefault("notes_agent.seed", "notes_agent_seed")
	v.SetDefault("notes_agent.http_port", 8007)

	for _, agent := range []string{"mailbox", "gmail", "calendar_agent", "slack_agent", "spotify_agent", "discord_agent", "notes_agent"} {
		v.SetDefault(agent+".timeout", "30s")
		v.SetDefault(agent+".rate_limit.enabled", true)
		v.SetDefault(agent+".rate_limit.max_per_minute", 30)
		v.SetDefault(agent+".rate_limit.window", "1m")
	}

	// Frontend defaults
	v.SetDefault("frontend.port", 5001)
	v.SetDefault("frontend.static_dir", "frontend/static")

	// Server defaults
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")

	// Redis defaults (conversation context store)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.ttl", "24h")
	v.SetDefault("redis.window", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
