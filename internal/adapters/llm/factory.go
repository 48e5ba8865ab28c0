package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/socratic-dialogue/internal/config"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

// NewGateway builds the configured gateway, wrapped with instrumentation.
func NewGateway(ctx context.Context, cfg config.LLMConfig, metrics *observability.Metrics) (domain.CompletionGateway, error) {
	var (
		gw  domain.CompletionGateway
		err error
	)

	switch cfg.Provider {
	case config.ProviderMock:
		gw = NewMockLLM()
	case config.ProviderVertex:
		gw, err = NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, GenAIOptions{
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
	case config.ProviderGemini:
		gw, err = NewGeminiClient(ctx, cfg.APIKey, GenAIOptions{
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
	case config.ProviderOpenAI:
		gw, err = NewOpenAIClient(OpenAIOptions{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
	case config.ProviderAnthropic:
		gw, err = NewAnthropicClient(AnthropicOptions{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
			Timeout:         cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return Instrument(gw, cfg.Provider, metrics, nil), nil
}
