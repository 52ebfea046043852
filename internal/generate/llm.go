package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// API provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const defaultMaxTokens = 512

// LLMGenerator calls a model API through langchaingo.
type LLMGenerator struct {
	model     llms.Model
	maxTokens int
	logger    zerolog.Logger
}

// NewLLMGenerator builds a generator for the given API provider. The model
// name is provider-specific; an empty one uses the provider's default.
func NewLLMGenerator(provider, apiKey, modelName string, logger zerolog.Logger) (*LLMGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for provider %q", provider)
	}

	var model llms.Model
	var err error
	switch provider {
	case ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithToken(apiKey)}
		if modelName != "" {
			opts = append(opts, anthropic.WithModel(modelName))
		}
		model, err = anthropic.New(opts...)
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(apiKey)}
		if modelName != "" {
			opts = append(opts, openai.WithModel(modelName))
		}
		model, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown API provider: %q", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s model: %w", provider, err)
	}

	return &LLMGenerator{model: model, maxTokens: defaultMaxTokens, logger: logger}, nil
}

// NewLLMGeneratorFromModel wraps an already-constructed model. Tests use
// this with a fake.
func NewLLMGeneratorFromModel(model llms.Model, logger zerolog.Logger) *LLMGenerator {
	return &LLMGenerator{model: model, maxTokens: defaultMaxTokens, logger: logger}
}

// Generate sends the system and user prompts as separate messages and
// returns the first choice's text.
func (g *LLMGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, messages, llms.WithMaxTokens(g.maxTokens))
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("LLM returned empty content")
	}

	g.logger.Debug().Int("chars", len(text)).Msg("contribution generated")

	return text, nil
}
