package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
version: "1"
instance: myteam
slack:
  bot_token: xoxb-test
  bot_user_id: UBOT123
  default_channel: C1
personas:
  - name: Marcus
    role: senior security reviewer
    expertise: [appsec, auth]
  - name: Quinn
    role: qa engineer
projects:
  - path: /srv/app
    board:
      repo: o/board
      column: Ready
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nightwatch.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("valid config with defaults applied", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, "myteam", cfg.Instance)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, ":8799", cfg.Listener.Addr)
		assert.Equal(t, "cli", cfg.Generator.Backend)
		assert.Equal(t, "claude", cfg.Generator.Provider)
		require.Len(t, cfg.Personas, 2)
		assert.Equal(t, []string{"appsec", "auth"}, cfg.Personas[0].Expertise)
		require.NotNil(t, cfg.Projects[0].Board)
		assert.Equal(t, "o/board", cfg.Projects[0].Board.Repo)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("NIGHTWATCH_SLACK__BOT_TOKEN", "xoxb-from-env")

		cfg, err := Load(writeConfig(t, validYAML))
		require.NoError(t, err)
		assert.Equal(t, "xoxb-from-env", cfg.Slack.BotToken)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, validYAML))
		require.NoError(t, err)
		return cfg
	}

	t.Run("wrong version", func(t *testing.T) {
		cfg := base()
		cfg.Version = "2"
		assert.ErrorContains(t, cfg.Validate(), "unsupported version")
	})

	t.Run("missing bot token", func(t *testing.T) {
		cfg := base()
		cfg.Slack.BotToken = ""
		assert.ErrorContains(t, cfg.Validate(), "bot_token")
	})

	t.Run("missing bot user id", func(t *testing.T) {
		cfg := base()
		cfg.Slack.BotUserID = ""
		assert.ErrorContains(t, cfg.Validate(), "bot_user_id")
	})

	t.Run("no personas", func(t *testing.T) {
		cfg := base()
		cfg.Personas = nil
		assert.ErrorContains(t, cfg.Validate(), "no personas")
	})

	t.Run("duplicate persona names are rejected case-insensitively", func(t *testing.T) {
		cfg := base()
		cfg.Personas = append(cfg.Personas, PersonaConfig{Name: "marcus", Role: "dev"})
		assert.ErrorContains(t, cfg.Validate(), "duplicate persona name")
	})

	t.Run("persona without a role", func(t *testing.T) {
		cfg := base()
		cfg.Personas[1].Role = ""
		assert.ErrorContains(t, cfg.Validate(), "role is required")
	})

	t.Run("invalid cli provider", func(t *testing.T) {
		cfg := base()
		cfg.Generator.Provider = "gemini"
		assert.ErrorContains(t, cfg.Validate(), "generator.provider")
	})

	t.Run("api backend requires a key", func(t *testing.T) {
		cfg := base()
		cfg.Generator.Backend = "api"
		cfg.Generator.Provider = "anthropic"
		cfg.Generator.APIKey = ""
		assert.ErrorContains(t, cfg.Validate(), "api_key")
	})

	t.Run("board without repo", func(t *testing.T) {
		cfg := base()
		cfg.Projects[0].Board = &BoardConfig{Column: "Ready"}
		assert.ErrorContains(t, cfg.Validate(), "board.repo")
	})
}

func TestProjectByPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.NotNil(t, cfg.ProjectByPath("/srv/app"))
	assert.Nil(t, cfg.ProjectByPath("/srv/unknown"))
}

func TestLoadRoadmap(t *testing.T) {
	t.Run("reads the roadmap file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ROADMAP.md")
		require.NoError(t, os.WriteFile(path, []byte("1. Ship auth"), 0644))

		p := ProjectConfig{Path: "/srv/app", Roadmap: path}
		assert.Equal(t, "1. Ship auth", p.LoadRoadmap())
	})

	t.Run("missing file degrades to empty", func(t *testing.T) {
		p := ProjectConfig{Path: "/srv/app", Roadmap: "/nope/ROADMAP.md"}
		assert.Equal(t, "", p.LoadRoadmap())
	})

	t.Run("unset roadmap is empty", func(t *testing.T) {
		p := ProjectConfig{Path: "/srv/app"}
		assert.Equal(t, "", p.LoadRoadmap())
	})
}
