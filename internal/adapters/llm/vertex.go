package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GenAIClient is a CompletionGateway backed by Gemini, either through
// Vertex AI or the Gemini API.
type GenAIClient struct {
	client          *genai.Client
	modelName       string
	temperature     float32
	maxOutputTokens int32
}

// GenAIOptions tunes generation. Zero values select defaults.
type GenAIOptions struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int
}

// NewVertexClient creates a gateway based on Vertex AI (Gemini).
func NewVertexClient(ctx context.Context, projectID, location string, opts GenAIOptions) (*GenAIClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("vertex: project and location must be set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}
	return newGenAIClient(client, opts), nil
}

// NewGeminiClient creates a gateway based on the Gemini API with an API key.
func NewGeminiClient(ctx context.Context, apiKey string, opts GenAIOptions) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return newGenAIClient(client, opts), nil
}

func newGenAIClient(client *genai.Client, opts GenAIOptions) *GenAIClient {
	c := &GenAIClient{
		client:          client,
		modelName:       opts.Model,
		temperature:     opts.Temperature,
		maxOutputTokens: int32(opts.MaxOutputTokens),
	}
	if c.modelName == "" {
		c.modelName = defaultGeminiModel
	}
	if c.temperature == 0 {
		c.temperature = 0.7
	}
	if c.maxOutputTokens == 0 {
		c.maxOutputTokens = 8192
	}
	return c
}

// Complete implements domain.CompletionGateway.
func (v *GenAIClient) Complete(
	ctx context.Context,
	systemPrompt string,
	messages []domain.ChatMessage,
) (string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		var role genai.Role = genai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	temp := v.temperature
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		// According to official examples, the role here is usually RoleUser, not "system"
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   v.maxOutputTokens,
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", classifyGenAIError(err)
	}

	text := res.Text()
	if text == "" {
		return "", &domain.CompletionError{StatusCode: 204, Message: "model returned empty text"}
	}
	return text, nil
}
