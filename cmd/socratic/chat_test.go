package main

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/PabloGalante/socratic-dialogue/internal/app/conversation"
	"github.com/PabloGalante/socratic-dialogue/internal/config"
)

func TestBuildApp_Defaults(t *testing.T) {
	ctx := context.Background()
	a, err := buildApp(ctx, config.Default(), nil)
	require.NoError(t, err)
	defer a.Close(ctx)

	out, err := a.svc.StartSession(ctx, conversation.StartSessionInput{
		SourceMaterial: "Water boils at lower temperatures at altitude.",
		FocusQuestion:  "Why?",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Turn.Reply)
	assert.Equal(t, 1, out.Session.ExchangeCount)
}

func TestBuildApp_ShutsDownTracingOnError(t *testing.T) {
	c := config.Default()
	c.Tracing.Exporter = "stdout"
	c.Session.FallbackPoolFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := buildApp(context.Background(), c, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading fallback pool")

	_, span := otel.Tracer("socratic-test").Start(context.Background(), "after-failure")
	defer span.End()
	assert.False(t, span.IsRecording())
}

func TestChat_Transcript(t *testing.T) {
	cfg = config.Default()

	input := strings.Join([]string{
		"I think pressure matters",
		"/reflect nothing yet",
		"/end",
		"The boiling point depends on pressure.",
		"I ask myself why more often.",
		"/export markdown",
		"/quit",
	}, "\n") + "\n"

	var out bytes.Buffer
	c := &chat{
		out:   &out,
		in:    bufio.NewScanner(strings.NewReader(input)),
		doc:   &conversation.Document{Filename: "notes.txt", Data: []byte("Water boils at lower temperatures at altitude.")},
		focus: "Why does altitude matter?",
	}
	require.NoError(t, c.run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Focus: Why does altitude matter?")
	assert.Contains(t, got, "[Partner]")
	assert.Contains(t, got, "No reflection question is waiting.")
	assert.Contains(t, got, "Dialogue closed after 2 exchanges.")
	assert.Contains(t, got, "Session Summary")
	assert.Contains(t, got, "# Learning Session Report")
}
