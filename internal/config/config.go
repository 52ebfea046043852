// Package config loads and validates nightwatch.yml. Configuration is
// layered: built-in defaults, then the YAML file, then NIGHTWATCH_*
// environment overrides (double underscore separates key segments, so
// NIGHTWATCH_SLACK__BOT_TOKEN overrides slack.bot_token).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "nightwatch.yml"

// Config is the top-level nightwatch.yml configuration.
type Config struct {
	Version   string          `koanf:"version"`
	Instance  string          `koanf:"instance"`
	Redis     RedisConfig     `koanf:"redis"`
	Slack     SlackConfig     `koanf:"slack"`
	Listener  ListenerConfig  `koanf:"listener"`
	Generator GeneratorConfig `koanf:"generator"`
	Personas  []PersonaConfig `koanf:"personas"`
	Projects  []ProjectConfig `koanf:"projects"`
}

// RedisConfig locates the discussion store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// SlackConfig holds the bot credentials and identity.
type SlackConfig struct {
	BotToken       string `koanf:"bot_token"`
	BotUserID      string `koanf:"bot_user_id"`
	DefaultChannel string `koanf:"default_channel"`
}

// ListenerConfig configures the event listener HTTP server.
type ListenerConfig struct {
	Addr string `koanf:"addr"`
}

// GeneratorConfig selects the contribution backend: "cli" shells out to a
// local coding agent, "api" calls a model API.
type GeneratorConfig struct {
	Backend  string `koanf:"backend"`
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
}

// PersonaConfig declares one roster persona.
type PersonaConfig struct {
	Name      string   `koanf:"name"`
	Role      string   `koanf:"role"`
	Provider  string   `koanf:"provider"`
	Model     string   `koanf:"model"`
	Opinions  []string `koanf:"opinions"`
	Style     string   `koanf:"style"`
	Expertise []string `koanf:"expertise"`
}

// ProjectConfig declares a watched project.
type ProjectConfig struct {
	Path    string       `koanf:"path"`
	Roadmap string       `koanf:"roadmap"`
	Board   *BoardConfig `koanf:"board"`
}

// BoardConfig points escalation at a repo's issue board.
type BoardConfig struct {
	Repo   string `koanf:"repo"`
	Column string `koanf:"column"`
}

// defaults is the confmap base layer.
var defaults = map[string]interface{}{
	"version":            "1",
	"instance":           "default",
	"redis.addr":         "localhost:6379",
	"listener.addr":      ":8799",
	"generator.backend":  "cli",
	"generator.provider": "claude",
}

// Load reads, layers and validates the configuration. An empty path uses
// DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if err := k.Load(env.Provider("NIGHTWATCH_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "NIGHTWATCH_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate performs strict validation on the configuration.
func (c *Config) Validate() error {
	if c.Version != "1" {
		return fmt.Errorf("unsupported version: %s (expected: 1)", c.Version)
	}

	if c.Instance == "" {
		return fmt.Errorf("instance name is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}

	if c.Slack.BotToken == "" {
		return fmt.Errorf("slack.bot_token is required")
	}
	if c.Slack.BotUserID == "" {
		return fmt.Errorf("slack.bot_user_id is required")
	}

	switch c.Generator.Backend {
	case "cli":
		if c.Generator.Provider != "claude" && c.Generator.Provider != "codex" {
			return fmt.Errorf("invalid generator.provider for cli backend: %s (must be 'claude' or 'codex')", c.Generator.Provider)
		}
	case "api":
		if c.Generator.Provider != "anthropic" && c.Generator.Provider != "openai" {
			return fmt.Errorf("invalid generator.provider for api backend: %s (must be 'anthropic' or 'openai')", c.Generator.Provider)
		}
		if c.Generator.APIKey == "" {
			return fmt.Errorf("generator.api_key is required for the api backend")
		}
	default:
		return fmt.Errorf("invalid generator.backend: %s (must be 'cli' or 'api')", c.Generator.Backend)
	}

	if len(c.Personas) == 0 {
		return fmt.Errorf("no personas defined")
	}
	namesSeen := make(map[string]struct{})
	for i, p := range c.Personas {
		if p.Name == "" {
			return fmt.Errorf("persona %d: name is required", i)
		}
		if p.Role == "" {
			return fmt.Errorf("persona '%s': role is required", p.Name)
		}
		lower := strings.ToLower(p.Name)
		if _, dup := namesSeen[lower]; dup {
			return fmt.Errorf("duplicate persona name '%s': persona names must be unique", p.Name)
		}
		namesSeen[lower] = struct{}{}
	}

	pathsSeen := make(map[string]struct{})
	for i, proj := range c.Projects {
		if proj.Path == "" {
			return fmt.Errorf("project %d: path is required", i)
		}
		if _, dup := pathsSeen[proj.Path]; dup {
			return fmt.Errorf("duplicate project path '%s'", proj.Path)
		}
		pathsSeen[proj.Path] = struct{}{}

		if proj.Board != nil && proj.Board.Repo == "" {
			return fmt.Errorf("project '%s': board.repo is required when a board is configured", proj.Path)
		}
	}

	return nil
}

// ProjectByPath returns the project config for a path, or nil.
func (c *Config) ProjectByPath(path string) *ProjectConfig {
	for i := range c.Projects {
		if c.Projects[i].Path == path {
			return &c.Projects[i]
		}
	}
	return nil
}

// LoadRoadmap reads the project's roadmap file. Missing or unreadable
// roadmaps degrade to "".
func (p *ProjectConfig) LoadRoadmap() string {
	if p.Roadmap == "" {
		return ""
	}
	data, err := os.ReadFile(p.Roadmap)
	if err != nil {
		return ""
	}
	return string(data)
}
