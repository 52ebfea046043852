// Package generate produces persona contributions. Two backends exist: CLI
// shells out to a local coding agent (claude or codex), LLM calls a model
// API through langchaingo. Both satisfy the deliberation engine's Generator
// interface.
package generate

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CLI provider names.
const (
	ProviderClaude = "claude"
	ProviderCodex  = "codex"
)

const (
	defaultCLITimeout = 120 * time.Second

	// maxOutputBytes guards against a runaway CLI dumping its whole context.
	maxOutputBytes = 64 * 1024
)

// Runner executes an external command. Injected so tests never spawn real
// processes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CLIGenerator shells out to a local coding-agent CLI for each contribution.
type CLIGenerator struct {
	provider string
	timeout  time.Duration
	runner   Runner
	logger   zerolog.Logger
}

// NewCLIGenerator creates a generator for the given provider (claude or
// codex). A nil runner gets the exec-backed default.
func NewCLIGenerator(provider string, runner Runner, logger zerolog.Logger) (*CLIGenerator, error) {
	if provider != ProviderClaude && provider != ProviderCodex {
		return nil, fmt.Errorf("unknown CLI provider: %q", provider)
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &CLIGenerator{
		provider: provider,
		timeout:  defaultCLITimeout,
		runner:   runner,
		logger:   logger,
	}, nil
}

// Generate invokes the provider CLI in non-interactive mode and returns its
// trimmed output.
func (g *CLIGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var name string
	var args []string
	switch g.provider {
	case ProviderClaude:
		name = "claude"
		args = []string{"-p", "--append-system-prompt", systemPrompt, userPrompt}
	case ProviderCodex:
		name = "codex"
		args = []string{"exec", systemPrompt + "\n\n" + userPrompt}
	}

	start := time.Now()
	out, err := g.runner.Run(ctx, name, args...)
	if err != nil {
		return "", fmt.Errorf("%s invocation failed: %w", g.provider, err)
	}

	if len(out) > maxOutputBytes {
		out = out[:maxOutputBytes]
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", fmt.Errorf("%s produced no output", g.provider)
	}

	g.logger.Debug().
		Str("provider", g.provider).
		Dur("elapsed", time.Since(start)).
		Int("chars", len(text)).
		Msg("contribution generated")

	return text, nil
}
