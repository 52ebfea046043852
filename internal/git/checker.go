package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Checker provides Git repository validation functionality
type Checker struct{}

// NewChecker creates a new Git checker
func NewChecker() *Checker {
	return &Checker{}
}

// IsGitRepository checks if the current directory is within a Git repository
func (c *Checker) IsGitRepository() (bool, error) {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.Error); ok {
			return false, fmt.Errorf("git not found in PATH\nnightwatch requires Git to be installed.\nInstall Git: https://git-scm.com/downloads")
		}
		return false, nil
	}
	return true, nil
}

// GetGitRoot returns the absolute path to the Git repository root
func (c *Checker) GetGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get Git root: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// IsGitRoot checks if the current directory is the Git repository root
func (c *Checker) IsGitRoot() (bool, string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return false, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	gitRoot, err := c.GetGitRoot()
	if err != nil {
		return false, "", err
	}

	isRoot := filepath.Clean(currentDir) == filepath.Clean(gitRoot)
	return isRoot, gitRoot, nil
}

// ValidateGitContext validates that we're in a Git repository at its root.
// Returns a user-friendly error if validation fails.
func (c *Checker) ValidateGitContext() error {
	isRepo, err := c.IsGitRepository()
	if err != nil {
		return err
	}
	if !isRepo {
		return fmt.Errorf("not a Git repository\n\nnightwatch requires initialization from within a Git repository.\n\nRun 'git init' first, then 'nightwatch init'")
	}

	isRoot, gitRoot, err := c.IsGitRoot()
	if err != nil {
		return err
	}
	if !isRoot {
		currentDir, _ := os.Getwd()
		return fmt.Errorf("must run from Git repository root\n\nGit root: %s\nCurrent directory: %s\n\nPlease cd to the Git root and run 'nightwatch init'", gitRoot, currentDir)
	}

	return nil
}

// IsWorkspaceClean returns true if the Git working directory has no
// uncommitted changes, including staged, unstaged, and untracked files.
func (c *Checker) IsWorkspaceClean() (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to check Git status: %w", err)
	}
	return len(strings.TrimSpace(string(output))) == 0, nil
}
