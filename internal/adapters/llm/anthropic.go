package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

const (
	anthropicAPIVersion     = "2023-06-01"
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel   = "claude-3-5-sonnet-20240620"
	defaultAnthropicTokens  = 4096
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      []systemBlock      `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type systemBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnthropicClient is a CompletionGateway over the Anthropic Messages API.
type AnthropicClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature *float32
}

type AnthropicOptions struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration
}

func NewAnthropicClient(opts AnthropicOptions) (*AnthropicClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}

	c := &AnthropicClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		maxTokens:  opts.MaxOutputTokens,
	}
	if opts.Timeout > 0 {
		c.httpClient.Timeout = opts.Timeout
	}
	if c.baseURL == "" {
		c.baseURL = defaultAnthropicBaseURL
	}
	if c.model == "" {
		c.model = defaultAnthropicModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultAnthropicTokens
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		c.temperature = &t
	}
	return c, nil
}

// Complete implements domain.CompletionGateway.
func (a *AnthropicClient) Complete(ctx context.Context, systemPrompt string, messages []domain.ChatMessage) (string, error) {
	apiMessages := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		apiMessages = append(apiMessages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	reqBody := anthropicRequest{
		Model:       a.model,
		Messages:    apiMessages,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}
	if systemPrompt != "" {
		reqBody.System = []systemBlock{{Type: "text", Text: systemPrompt}}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("anthropic: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("anthropic: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	var parsed anthropicResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", &domain.CompletionError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", &domain.CompletionError{StatusCode: resp.StatusCode, Message: "undecodable response body"}
	}

	var sb strings.Builder
	for _, c := range parsed.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &domain.CompletionError{StatusCode: resp.StatusCode, Message: "response contained no text"}
	}
	return sb.String(), nil
}
