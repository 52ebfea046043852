package scaffold

import (
	"fmt"
	"os"
)

// CheckExisting returns an error if nightwatch.yml already exists.
func CheckExisting() error {
	if _, err := os.Stat(ConfigFileName); err == nil {
		return fmt.Errorf("project already initialized\n\nFound existing: %s\n\nUse 'nightwatch init --force' to reinitialize (this will overwrite existing configuration)", ConfigFileName)
	}
	return nil
}
