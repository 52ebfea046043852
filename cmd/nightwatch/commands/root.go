package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nightwatch",
	Short: "night-watch - multi-persona deliberation orchestrator",
	Long: `night-watch turns engineering signals (opened PRs, build failures,
issue triage requests, suspicious code patterns, roadmap kickoffs) into
multi-round persona discussions in chat threads.

A roster of configured personas deliberates in rounds, converges on a
consensus (approve / request changes / escalate to a human), and can file
follow-up issues on a project board.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to nightwatch.yml (default: ./nightwatch.yml)")
}
