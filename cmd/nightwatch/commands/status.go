package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/config"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/printer"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/resolver"
)

var statusCmd = &cobra.Command{
	Use:   "status <discussion-id>",
	Short: "Show a discussion and its transcript",
	Long: `Show a discussion's state and full transcript.

The discussion ID may be a full UUID or a unique prefix of at least 6
characters.

Examples:
  nightwatch status 3f2a9c
  nightwatch status 3f2a9c81-07e4-4e3a-9c7a-5b7d2f8e4a11`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := resolver.ResolveDiscussionID(ctx, store, args[0])
	if err != nil {
		if amb, ok := err.(*resolver.AmbiguousError); ok {
			printer.Println(resolver.FormatAmbiguousError(amb))
			return fmt.Errorf("ambiguous discussion ID")
		}
		return err
	}

	disc, err := store.GetDiscussion(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to read discussion: %w", err)
	}

	printer.Printf("Discussion %s\n", disc.ID)
	printer.Printf("  Project:  %s\n", disc.ProjectPath)
	printer.Printf("  Trigger:  %s (%s)\n", disc.TriggerType, disc.TriggerRef)
	printer.Printf("  Status:   %s\n", disc.Status)
	if disc.ConsensusResult != "" {
		printer.Printf("  Result:   %s\n", disc.ConsensusResult)
	}
	printer.Printf("  Rounds:   %d\n", disc.Round)
	if disc.ThreadTS != "" {
		printer.Printf("  Thread:   %s / %s\n", disc.ChannelID, disc.ThreadTS)
	}

	entries, err := store.Transcript(ctx, disc.ID)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	if len(entries) == 0 {
		printer.Printf("\n(no contributions yet)\n")
		return nil
	}

	printer.Printf("\nTranscript:\n")
	for _, e := range entries {
		printer.Printf("  [round %d] %s: %s\n", e.Round, e.Persona, e.Text)
	}
	return nil
}
