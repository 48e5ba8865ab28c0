package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

func TestAnthropicClient_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant",
			"content":[{"type":"text","text":"What does the author "},{"type":"text","text":"mean by that?"}]}`))
	}))
	defer srv.Close()

	c, err := NewAnthropicClient(AnthropicOptions{APIKey: "test-key", BaseURL: srv.URL, Temperature: 0.5})
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), "be socratic", []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hi"},
		{Role: domain.RoleUser, Content: "next"},
	})
	require.NoError(t, err)
	assert.Equal(t, "What does the author mean by that?", text)

	assert.Equal(t, defaultAnthropicModel, got.Model)
	assert.Equal(t, defaultAnthropicTokens, got.MaxTokens)
	require.Len(t, got.System, 1)
	assert.Equal(t, "be socratic", got.System[0].Text)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.5, *got.Temperature, 0.001)
}

func TestAnthropicClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	c, err := NewAnthropicClient(AnthropicOptions{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "sys", []domain.ChatMessage{{Role: domain.RoleUser, Content: "x"}})
	var ce *domain.CompletionError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, ce.StatusCode)
	assert.Equal(t, "slow down", ce.Message)
}

func TestAnthropicClient_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg_1","content":[]}`))
	}))
	defer srv.Close()

	c, err := NewAnthropicClient(AnthropicOptions{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "sys", nil)
	var ce *domain.CompletionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusOK, ce.StatusCode)
}

func TestAnthropicClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewAnthropicClient(AnthropicOptions{APIKey: "k", BaseURL: url})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "sys", nil)
	var te *domain.TransportError
	assert.True(t, errors.As(err, &te), "got %v", err)
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(AnthropicOptions{})
	assert.Error(t, err)
}
