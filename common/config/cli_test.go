package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCLIMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadCLI(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.CurrentProfile)
	profile, err := cfg.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, "nats://localhost:4222", profile.NATSURL)
	assert.Equal(t, "mailbox", profile.DefaultAgent)
}

func TestCLIConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocal", "config.yaml")

	cfg, err := LoadCLI(path)
	require.NoError(t, err)
	require.NoError(t, cfg.SaveAgentAddress("", "gmail", "agent1gmailaddr"))

	loaded, err := LoadCLI(path)
	require.NoError(t, err)
	profile, err := loaded.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, "agent1gmailaddr", profile.Agents["gmail"])
}

func TestGetProfileUnknownName(t *testing.T) {
	cfg := DefaultCLI()
	_, err := cfg.GetProfile("production")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile 'production' not found")
}

func TestSaveAgentAddressInitializesMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadCLI(path)
	require.NoError(t, err)

	profile, err := cfg.GetProfile("")
	require.NoError(t, err)
	profile.Agents = nil

	require.NoError(t, cfg.SaveAgentAddress("", "slack", "agent1slackaddr"))
	assert.Equal(t, "agent1slackaddr", profile.Agents["slack"])
}
