package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingNone(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingOptions{Exporter: "none"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingOptions{Exporter: "zipkin"})
	assert.ErrorContains(t, err, "zipkin")
}
