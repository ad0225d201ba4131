package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"daylab/internal/logger"
)

// GeminiClient generates ideas through Google's Gemini API.
type GeminiClient struct {
	apiKey string
	model  string
	client *genai.Client
}

// NewGeminiClient creates a new Gemini idea client. model may be empty to
// use the default.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{apiKey: apiKey, model: model}
}

// ProviderName returns the provider name for this client.
func (c *GeminiClient) ProviderName() string {
	return "gemini"
}

// IsConfigured returns true if the client has an API key.
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) error {
	if c.client != nil {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("gemini API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client

	logger.Debug("Gemini client initialized", "provider", "gemini")
	return nil
}

// GenerateIdea asks Gemini for one experiment idea line.
func (c *GeminiClient) GenerateIdea(ctx context.Context, direction string) (string, error) {
	if err := c.initializeClientIfNeeded(ctx); err != nil {
		return "", fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: ideaUserPrompt(direction)}}},
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ideaSystemPrompt, genai.RoleUser),
	}

	logger.Debug("Sending Gemini idea request", "model", c.model)
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	content := result.Text()
	if content == "" {
		return "", fmt.Errorf("empty response content")
	}

	logger.Debug("Gemini idea received", "content_length", len(content))
	return content, nil
}
