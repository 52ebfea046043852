// Package scaffold creates the initial nightwatch project layout.
package scaffold

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

// ConfigFileName is the configuration file written by Initialize.
const ConfigFileName = "nightwatch.yml"

// Initialize creates the nightwatch project structure. If force is true, an
// existing nightwatch.yml is removed first.
func Initialize(force bool) error {
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	content, err := templatesFS.ReadFile("templates/nightwatch.yml.tmpl")
	if err != nil {
		return fmt.Errorf("failed to read nightwatch.yml template: %w", err)
	}

	if err := os.WriteFile(ConfigFileName, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConfigFileName, err)
	}

	return validateCreatedFiles()
}

// handleForce removes the existing config if --force was specified
func handleForce() error {
	if _, err := os.Stat(ConfigFileName); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", ConfigFileName)
		if err := os.Remove(ConfigFileName); err != nil {
			return fmt.Errorf("failed to remove %s: %w", ConfigFileName, err)
		}
	}
	return nil
}

// validateCreatedFiles verifies the written config parses as YAML.
func validateCreatedFiles() error {
	data, err := os.ReadFile(ConfigFileName)
	if err != nil {
		return fmt.Errorf("failed to read back %s: %w", ConfigFileName, err)
	}

	var parsed map[string]interface{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("generated %s is not valid YAML: %w", ConfigFileName, err)
	}

	return nil
}

// PrintSuccess prints the post-init guidance.
func PrintSuccess() {
	fmt.Println()
	fmt.Printf("✓ Created %s\n", ConfigFileName)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit %s: set slack.bot_token, slack.bot_user_id and your projects\n", ConfigFileName)
	fmt.Println("  2. Start the Redis instance:  nightwatch up")
	fmt.Println("  3. Start the listener:        nightwatch serve")
}
