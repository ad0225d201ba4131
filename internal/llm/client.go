// Package llm provides the provider clients used for AI idea generation.
// Each client wraps one vendor SDK behind the same small interface; the
// runner only ever asks for a single short idea line.
package llm

import (
	"context"
	"fmt"
)

// IdeaClient is the provider-side interface for idea generation.
// It matches ideas.Client so any of these clients can be plugged into the
// idea generator.
type IdeaClient interface {
	ProviderName() string
	IsConfigured() bool
	GenerateIdea(ctx context.Context, direction string) (string, error)
}

// ideaSystemPrompt frames every idea request the same way regardless of provider.
const ideaSystemPrompt = `You suggest small, self-contained programming experiments.
Reply with exactly one idea as a single short line, no numbering, no quotes,
no explanation. The idea must be buildable in one sitting as a standalone
command-line or small web program.`

// ideaUserPrompt builds the user message for an idea request.
func ideaUserPrompt(direction string) string {
	if direction == "" {
		return "Suggest one creative programming experiment idea."
	}
	return fmt.Sprintf("Suggest one programming experiment idea for this direction: %s", direction)
}

// Default models per provider, used when none is configured.
const (
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultGeminiModel    = "gemini-2.0-flash"
)

// NewClient creates an idea client for the given provider name.
// Supported providers: anthropic, openai, gemini.
func NewClient(provider, apiKey, model string) (IdeaClient, error) {
	switch provider {
	case "anthropic":
		return NewAnthropicClient(apiKey, model), nil
	case "openai":
		return NewOpenAIClient(apiKey, model), nil
	case "gemini":
		return NewGeminiClient(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported idea provider %q (supported: anthropic, openai, gemini)", provider)
	}
}
