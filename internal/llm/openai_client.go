package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"daylab/internal/logger"
)

// OpenAIClient generates ideas through OpenAI's chat completions API.
type OpenAIClient struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI idea client. model may be empty to
// use the default.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{apiKey: apiKey, model: model}
}

// ProviderName returns the provider name for this client.
func (c *OpenAIClient) ProviderName() string {
	return "openai"
}

// IsConfigured returns true if the client has an API key.
func (c *OpenAIClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *OpenAIClient) initializeClientIfNeeded() error {
	if c.client != nil {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("openai API key not configured")
	}

	client := openai.NewClient(option.WithAPIKey(c.apiKey))
	c.client = &client

	logger.Debug("OpenAI client initialized", "provider", "openai")
	return nil
}

// GenerateIdea asks OpenAI for one experiment idea line.
func (c *OpenAIClient) GenerateIdea(ctx context.Context, direction string) (string, error) {
	if err := c.initializeClientIfNeeded(); err != nil {
		return "", fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(ideaSystemPrompt),
			openai.UserMessage(ideaUserPrompt(direction)),
		},
		MaxTokens: openai.Int(128),
	}

	logger.Debug("Sending OpenAI idea request", "model", c.model)
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response content")
	}

	logger.Debug("OpenAI idea received", "content_length", len(content))
	return content, nil
}
