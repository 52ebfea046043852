package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/config"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/fetch"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/listener"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/threadstate"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat event listener",
	Long: `Run the night-watch listener: an HTTP server that receives chat event
callbacks and dispatches them.

Messages are classified in order:
  1. Job requests ("review #42", "run the build") start deliberations
  2. Issue pickup requests and reviewable issue links start issue triage
  3. Direct provider questions ("claude, ...") get a one-off answer
  4. Addressed thread messages get an ad-hoc persona reply

The configured persona roster is synced into the discussion store at startup.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides listener.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := syncPersonas(ctx, store, cfg); err != nil {
		return err
	}
	logger.Info().Int("personas", len(cfg.Personas)).Str("instance", cfg.Instance).Msg("persona roster synced")

	state := threadstate.NewManager()
	engine, slack, generator, err := buildEngine(cfg, store, state, logger)
	if err != nil {
		return err
	}

	defaultProject := ""
	projectPaths := make([]string, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		projectPaths = append(projectPaths, p.Path)
	}
	if len(projectPaths) > 0 {
		defaultProject = projectPaths[0]
	}

	server := listener.NewServer(listener.Options{
		BotUserID:      cfg.Slack.BotUserID,
		DefaultProject: defaultProject,
		Projects:       projectPaths,
		Engine:         engine,
		Store:          store,
		Transport:      slack,
		Generator:      generator,
		State:          state,
		WebFetcher:     fetch.NewWebFetcher(nil, logger),
		IssueFetcher:   fetch.NewIssueFetcher(nil, logger),
		Logger:         logger,
	})

	addr := serveAddr
	if addr == "" {
		addr = cfg.Listener.Addr
	}

	logger.Info().Str("addr", addr).Msg("listener starting")
	if err := server.Start(ctx, addr); err != nil {
		return fmt.Errorf("listener stopped: %w", err)
	}
	return nil
}
