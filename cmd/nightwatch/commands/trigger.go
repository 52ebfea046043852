package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/config"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/printer"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/threadstate"
	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

var (
	triggerType    string
	triggerProject string
	triggerRef     string
	triggerContext string
	triggerChannel string
	triggerPRURL   string
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Start a deliberation manually",
	Long: `Start a deliberation for a trigger without going through the listener.

The full deliberation runs synchronously: the thread is opened, rounds are
walked, and the terminal state is printed.

Examples:
  # Review a PR
  nightwatch trigger --type pr_review --project /srv/app --ref 42

  # Triage a build failure
  nightwatch trigger --type build_failure --project /srv/app --ref main \
    --context "yarn verify failed on step 'typecheck'"

  # Kick off a roadmap discussion
  nightwatch trigger --type prd_kickoff --project /srv/app --ref "v2 auth"`,
	RunE: runTrigger,
}

func init() {
	triggerCmd.Flags().StringVar(&triggerType, "type", "", "Trigger type: pr_review, build_failure, prd_kickoff, code_watch, issue_review")
	triggerCmd.Flags().StringVar(&triggerProject, "project", "", "Project path the discussion is about")
	triggerCmd.Flags().StringVar(&triggerRef, "ref", "", "PR number, PRD name or issue reference")
	triggerCmd.Flags().StringVar(&triggerContext, "context", "", "Free-text context folded into prompts")
	triggerCmd.Flags().StringVar(&triggerChannel, "channel", "", "Chat channel override (default: slack.default_channel)")
	triggerCmd.Flags().StringVar(&triggerPRURL, "pr-url", "", "Direct link to the PR, if any")
	_ = triggerCmd.MarkFlagRequired("type")
	_ = triggerCmd.MarkFlagRequired("ref")
	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
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

	projectPath := triggerProject
	if projectPath == "" && len(cfg.Projects) > 0 {
		projectPath = cfg.Projects[0].Path
	}

	channel := triggerChannel
	if channel == "" {
		channel = cfg.Slack.DefaultChannel
	}

	trigger := &discussion.Trigger{
		Type:        discussion.TriggerType(triggerType),
		ProjectPath: projectPath,
		Ref:         triggerRef,
		Context:     triggerContext,
		PRURL:       triggerPRURL,
		ChannelID:   channel,
	}

	engine, _, _, err := buildEngine(cfg, store, threadstate.NewManager(), logger)
	if err != nil {
		return err
	}

	disc, err := engine.HandleTrigger(ctx, trigger)
	if err != nil {
		return fmt.Errorf("deliberation failed: %w", err)
	}

	printer.Success("Deliberation finished\n")
	printer.Printf("  ID:      %s\n", disc.ID)
	printer.Printf("  Status:  %s\n", disc.Status)
	if disc.ConsensusResult != "" {
		printer.Printf("  Result:  %s\n", disc.ConsensusResult)
	}
	printer.Printf("  Rounds:  %d\n", disc.Round)
	printer.Printf("\nInspect the transcript:\n  nightwatch status %s\n", disc.ID[:8])
	return nil
}
