package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/board"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/config"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/deliberation"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/generate"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/threadstate"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/transport"
	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

// newLogger builds the CLI's console logger.
func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// openStore connects the discussion store from the loaded config.
func openStore(cfg *config.Config) (*discussion.Client, error) {
	store, err := discussion.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Instance)
	if err != nil {
		return nil, fmt.Errorf("connecting to Redis at %s: %w", cfg.Redis.Addr, err)
	}

	if err := store.Ping(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("Redis not accessible at %s: %w\n\nStart the instance first: nightwatch up", cfg.Redis.Addr, err)
	}

	return store, nil
}

// syncPersonas reconciles the configured roster into the store. Existing
// personas keep their IDs; new names get fresh UUIDs.
func syncPersonas(ctx context.Context, store *discussion.Client, cfg *config.Config) error {
	existing, err := store.ActivePersonas(ctx)
	if err != nil {
		return fmt.Errorf("loading existing personas: %w", err)
	}

	byName := make(map[string]discussion.Persona, len(existing))
	for _, p := range existing {
		byName[strings.ToLower(p.Name)] = p
	}

	for _, pc := range cfg.Personas {
		p := discussion.Persona{
			ID:        uuid.New().String(),
			Name:      pc.Name,
			Role:      pc.Role,
			Opinions:  pc.Opinions,
			Expertise: pc.Expertise,
			Provider:  pc.Provider,
			Model:     pc.Model,
		}
		if pc.Style != "" {
			p.Style = []string{pc.Style}
		}
		if prev, ok := byName[strings.ToLower(pc.Name)]; ok {
			p.ID = prev.ID
		}
		if err := store.PutPersona(ctx, &p); err != nil {
			return fmt.Errorf("storing persona '%s': %w", pc.Name, err)
		}
	}

	return nil
}

// buildGenerator constructs the contribution generator from config.
func buildGenerator(cfg *config.Config, logger zerolog.Logger) (deliberation.Generator, error) {
	switch cfg.Generator.Backend {
	case "api":
		return generate.NewLLMGenerator(cfg.Generator.Provider, cfg.Generator.APIKey, cfg.Generator.Model, logger)
	default:
		return generate.NewCLIGenerator(cfg.Generator.Provider, nil, logger)
	}
}

// buildEngine wires the full deliberation engine from config.
func buildEngine(cfg *config.Config, store *discussion.Client, state *threadstate.Manager, logger zerolog.Logger) (*deliberation.Engine, deliberation.Transport, deliberation.Generator, error) {
	slack, err := transport.NewSlackClient(cfg.Slack.BotToken, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building Slack transport: %w", err)
	}

	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building generator: %w", err)
	}

	projects := make(map[string]deliberation.Project, len(cfg.Projects))
	for _, pc := range cfg.Projects {
		proj := deliberation.Project{
			Path:    pc.Path,
			Roadmap: pc.LoadRoadmap(),
		}
		if pc.Board != nil {
			proj.BoardRepo = pc.Board.Repo
			proj.BoardColumn = pc.Board.Column
		}
		projects[pc.Path] = proj
	}

	engine := deliberation.NewEngine(
		store,
		slack,
		generator,
		board.NewGitHubBoard(nil, logger),
		state,
		nil,
		projects,
		logger,
	)

	return engine, slack, generator, nil
}
