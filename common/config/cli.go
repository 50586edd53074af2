package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CLIConfig holds the vocal CLI configuration: named profiles mapping agent
// names to their bus addresses, persisted at ~/.vocal/config.yaml.
type CLIConfig struct {
	CurrentProfile string                 `yaml:"current_profile"`
	Profiles       map[string]*CLIProfile `yaml:"profiles"`
	path           string
}

// CLIProfile holds per-environment settings for the CLI.
type CLIProfile struct {
	NATSURL      string            `yaml:"nats_url"`
	DefaultAgent string            `yaml:"default_agent"`
	Agents       map[string]string `yaml:"agents"` // name -> address
}

// DefaultCLI returns a CLIConfig with default values.
func DefaultCLI() *CLIConfig {
	return &CLIConfig{
		CurrentProfile: "default",
		Profiles: map[string]*CLIProfile{
			"default": {
				NATSURL:      "nats://localhost:4222",
				DefaultAgent: "mailbox",
				Agents:       make(map[string]string),
			},
		},
	}
}

// LoadCLI reads the CLI config from path, or from ~/.vocal/config.yaml when
// path is empty. A missing file yields the default config.
func LoadCLI(path string) (*CLIConfig, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".vocal", "config.yaml")
	}

	cfg := DefaultCLI()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse CLI config: %w", err)
	}
	cfg.path = path
	return cfg, nil
}

// Save writes the CLI config to disk.
func (c *CLIConfig) Save() error {
	if c.path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(home, ".vocal", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0600)
}

// GetProfile retrieves a profile by name (or the current profile if name is
// empty).
func (c *CLIConfig) GetProfile(name string) (*CLIProfile, error) {
	if name == "" {
		name = c.CurrentProfile
	}
	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}
	return profile, nil
}

// SaveAgentAddress records an agent's announced bus address in a profile.
func (c *CLIConfig) SaveAgentAddress(profile, agent, address string) error {
	p, err := c.GetProfile(profile)
	if err != nil {
		return err
	}
	if p.Agents == nil {
		p.Agents = make(map[string]string)
	}
	p.Agents[agent] = address
	return c.Save()
}
