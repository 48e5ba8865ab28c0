package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient is a CompletionGateway backed by the OpenAI chat completions API
// (or any compatible endpoint through BaseURL).
type OpenAIClient struct {
	client          *openai.Client
	model           string
	temperature     float32
	maxOutputTokens int
}

type OpenAIOptions struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	MaxOutputTokens int
}

func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIClient{
		client:          openai.NewClientWithConfig(cfg),
		model:           model,
		temperature:     opts.Temperature,
		maxOutputTokens: opts.MaxOutputTokens,
	}, nil
}

// Complete implements domain.CompletionGateway.
func (o *OpenAIClient) Complete(ctx context.Context, systemPrompt string, messages []domain.ChatMessage) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
	}
	if o.temperature > 0 {
		req.Temperature = o.temperature
	}
	if o.maxOutputTokens > 0 {
		req.MaxCompletionTokens = o.maxOutputTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &domain.CompletionError{StatusCode: 204, Message: "OpenAI returned no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}
