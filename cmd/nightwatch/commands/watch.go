package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/config"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/printer"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/watch"
)

var (
	watchProject string
	watchRef     string
	watchTimeout time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow discussion activity",
	Long: `Follow discussion activity on the instance.

Without flags, streams every discussion event (created, round advanced,
terminal transition) as it is published.

With --ref, waits for a discussion matching --project/--ref to appear, then
follows it to its terminal state.

Examples:
  # Stream all activity
  nightwatch watch

  # Wait for the review of PR 42 to conclude
  nightwatch watch --project /srv/app --ref 42 --timeout 10m`,
	RunE: runWatchCmd,
}

func init() {
	watchCmd.Flags().StringVar(&watchProject, "project", "", "Project path (default: first configured project)")
	watchCmd.Flags().StringVar(&watchRef, "ref", "", "Follow the discussion for this ref to its terminal state")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 5*time.Minute, "How long to wait in --ref mode")
	rootCmd.AddCommand(watchCmd)
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if watchRef != "" {
		project := watchProject
		if project == "" && len(cfg.Projects) > 0 {
			project = cfg.Projects[0].Path
		}

		printer.Info("Waiting for discussion on %s (%s)...\n", watchRef, project)
		disc, err := watch.PollForDiscussion(ctx, store, project, watchRef, watchTimeout)
		if err != nil {
			return err
		}
		printer.Step("Discussion %s opened, following...\n", disc.ID[:8])

		final, err := watch.PollForResolution(ctx, store, disc.ID, watchTimeout)
		if err != nil {
			return err
		}

		printer.Success("Discussion %s finished: %s", final.ID[:8], final.Status)
		if final.ConsensusResult != "" {
			printer.Printf(" (%s)", final.ConsensusResult)
		}
		printer.Println()
		return nil
	}

	sub, err := store.SubscribeDiscussionEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to discussion events: %w", err)
	}
	defer sub.Close()

	printer.Info("Watching discussion events (Ctrl-C to stop)...\n")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Errors():
			return fmt.Errorf("event stream failed: %w", err)
		case d, ok := <-sub.Events():
			if !ok {
				return nil
			}
			line := fmt.Sprintf("[%s] %s %s round=%d status=%s",
				time.Now().Format("15:04:05"), d.ID[:8], d.TriggerType, d.Round, d.Status)
			if d.ConsensusResult != "" {
				line += fmt.Sprintf(" result=%s", d.ConsensusResult)
			}
			printer.Println(line)
		}
	}
}
