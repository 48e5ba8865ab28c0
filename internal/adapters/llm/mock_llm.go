package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

// RespondFunc produces a reply for a completion request.
type RespondFunc func(ctx context.Context, system string, messages []domain.ChatMessage) (string, error)

// MockCall records one request received by a MockLLM.
type MockCall struct {
	System   string
	Messages []domain.ChatMessage
}

// MockLLM is an in-process gateway for local development and tests.
type MockLLM struct {
	mu      sync.Mutex
	respond RespondFunc
	calls   []MockCall
}

// NewMockLLM returns a gateway with canned, deterministic replies.
func NewMockLLM() *MockLLM {
	return &MockLLM{respond: cannedReply}
}

// NewScriptedLLM returns a gateway that delegates every request to fn.
func NewScriptedLLM(fn RespondFunc) *MockLLM {
	return &MockLLM{respond: fn}
}

func (m *MockLLM) Complete(ctx context.Context, system string, messages []domain.ChatMessage) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{
		System:   system,
		Messages: append([]domain.ChatMessage(nil), messages...),
	})
	respond := m.respond
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &domain.TransportError{Err: err}
	}
	return respond(ctx, system, messages)
}

// Calls returns a copy of the requests received so far.
func (m *MockLLM) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns how many requests were received.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func cannedReply(_ context.Context, system string, messages []domain.ChatMessage) (string, error) {
	switch {
	case strings.Contains(system, "# Learning Session Analysis"):
		return cannedAnalysis, nil
	case strings.Contains(system, "reflection questions"):
		return "What made you choose that line of reasoning over the alternatives?", nil
	}

	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	return fmt.Sprintf("You said %q. Which passage in the material supports that reading?", last), nil
}

const cannedAnalysis = `# Learning Session Analysis
## Practice session
**Duration:** a few minutes

**1. Session Summary**
You worked through the material with a partner that only asked questions.

**2. Thinking Shown**
You restated claims in your own words and checked them against the text.

**3. Key Insights**
Claims are only as strong as the evidence quoted for them.

**4. Follow-up Ideas**
Re-read the sections you found hardest and summarize each in one sentence.

**5. Reflective Summary**
Your answers became more precise as the session progressed.

**6. Learner Reflections**
*Content Learning:* see your end-of-session answer.
*Process Learning:* see your end-of-session answer.
`
