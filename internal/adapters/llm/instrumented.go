package llm

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

const tracerName = "github.com/PabloGalante/socratic-dialogue/internal/adapters/llm"

// Instrumented wraps a gateway with tracing, metrics and logging.
type Instrumented struct {
	next     domain.CompletionGateway
	provider string
	metrics  *observability.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// Instrument decorates next. A nil tp uses the global tracer provider.
func Instrument(next domain.CompletionGateway, provider string, metrics *observability.Metrics, tp trace.TracerProvider) *Instrumented {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Instrumented{
		next:     next,
		provider: provider,
		metrics:  metrics,
		tracer:   tp.Tracer(tracerName),
		now:      time.Now,
	}
}

func (g *Instrumented) Complete(ctx context.Context, systemPrompt string, messages []domain.ChatMessage) (string, error) {
	ctx, span := g.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", g.provider),
		attribute.Int("llm.messages", len(messages)),
		attribute.Int("llm.system_prompt.chars", len(systemPrompt)),
	))
	defer span.End()

	log := observability.LoggerFromContext(ctx).With("provider", g.provider)
	start := g.now()

	text, err := g.next.Complete(ctx, systemPrompt, messages)
	elapsed := g.now().Sub(start)

	if err != nil {
		outcome := "transport_error"
		var ce *domain.CompletionError
		if errors.As(err, &ce) {
			outcome = "completion_error"
			span.SetAttributes(attribute.Int("llm.status_code", ce.StatusCode))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.metrics.ObserveGateway(g.provider, outcome, elapsed.Seconds())
		log.Error("completion failed", "error", err, "elapsed_ms", elapsed.Milliseconds())
		return "", err
	}

	span.SetAttributes(attribute.Int("llm.response.chars", len(text)))
	g.metrics.ObserveGateway(g.provider, "ok", elapsed.Seconds())
	log.Info("completion succeeded", "elapsed_ms", elapsed.Milliseconds(), "response_chars", len(text))
	return text, nil
}
