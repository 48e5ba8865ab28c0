package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/socratic-dialogue/internal/config"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

func TestMockLLM_CannedReplies(t *testing.T) {
	m := NewMockLLM()
	ctx := context.Background()

	reply, err := m.Complete(ctx, "dialogue", []domain.ChatMessage{{Role: domain.RoleUser, Content: "the claim is weak"}})
	require.NoError(t, err)
	assert.Contains(t, reply, `"the claim is weak"`)

	reply, err = m.Complete(ctx, "Write one of your reflection questions", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(reply, "?"))

	reply, err = m.Complete(ctx, "Use this template:\n# Learning Session Analysis\n", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "**6. Learner Reflections**")

	calls := m.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "dialogue", calls[0].System)
	assert.Equal(t, 3, m.CallCount())
}

func TestMockLLM_CanceledContext(t *testing.T) {
	m := NewMockLLM()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Complete(ctx, "sys", nil)
	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGateway(t *testing.T) {
	ctx := context.Background()

	gw, err := NewGateway(ctx, config.LLMConfig{Provider: config.ProviderMock}, nil)
	require.NoError(t, err)
	_, ok := gw.(*Instrumented)
	assert.True(t, ok)

	_, err = NewGateway(ctx, config.LLMConfig{Provider: "carrier-pigeon"}, nil)
	assert.Error(t, err)

	_, err = NewGateway(ctx, config.LLMConfig{Provider: config.ProviderOpenAI}, nil)
	assert.Error(t, err)
}
