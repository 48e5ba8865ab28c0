package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

func newRecorded(t *testing.T, next domain.CompletionGateway) (*Instrumented, *tracetest.SpanRecorder, *observability.Metrics) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return Instrument(next, "mock", metrics, tp), sr, metrics
}

func TestInstrumented_Success(t *testing.T) {
	gw, sr, metrics := newRecorded(t, NewMockLLM())

	text, err := gw.Complete(context.Background(), "sys", []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "llm.complete", spans[0].Name())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GatewayRequests.WithLabelValues("mock", "ok")))
}

func TestInstrumented_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"completion error", &domain.CompletionError{StatusCode: 503}, "completion_error"},
		{"transport error", &domain.TransportError{Err: errors.New("dial tcp: refused")}, "transport_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, sr, metrics := newRecorded(t, NewScriptedLLM(func(context.Context, string, []domain.ChatMessage) (string, error) {
				return "", tt.err
			}))

			_, err := gw.Complete(context.Background(), "sys", nil)
			assert.ErrorIs(t, err, tt.err)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status().Code)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GatewayRequests.WithLabelValues("mock", tt.outcome)))
		})
	}
}
