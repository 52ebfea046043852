package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonit-dev/night-watch-cli-sub004/internal/config"
	"github.com/jonit-dev/night-watch-cli-sub004/internal/printer"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Sync and list the persona roster",
	Long: `Sync the personas declared in nightwatch.yml into the discussion store
and list the resulting roster.

Existing personas keep their IDs, so open discussions stay attributable
across config edits.`,
	RunE: runPersonas,
}

func init() {
	rootCmd.AddCommand(personasCmd)
}

func runPersonas(cmd *cobra.Command, args []string) error {
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

	if err := syncPersonas(ctx, store, cfg); err != nil {
		return err
	}

	roster, err := store.ActivePersonas(ctx)
	if err != nil {
		return err
	}

	printer.Success("Synced %d personas\n\n", len(cfg.Personas))
	printer.Printf("%-10s %-12s %-28s %s\n", "ID", "NAME", "ROLE", "EXPERTISE")
	for _, p := range roster {
		printer.Printf("%-10s %-12s %-28s %s\n", p.ID[:8], p.Name, p.Role, strings.Join(p.Expertise, ", "))
	}
	return nil
}
