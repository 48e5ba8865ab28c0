// Package prompt builds the system prompts and message lists sent to the
// completion gateway. Everything here is pure: equal inputs give equal output.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/socratic-dialogue/internal/app/analysis"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

// DefaultMaxSourceRunes bounds how much source material is embedded in a
// system prompt. Longer material is elided in the middle.
const DefaultMaxSourceRunes = 24000

// Prompt represents the system prompt + the messages to send.
type Prompt struct {
	System   string
	Messages []domain.ChatMessage
}

// Composer holds the prompt size policy.
type Composer struct {
	maxSourceRunes int
}

// NewComposer returns a Composer. A maxSourceRunes <= 0 selects the default.
func NewComposer(maxSourceRunes int) *Composer {
	if maxSourceRunes <= 0 {
		maxSourceRunes = DefaultMaxSourceRunes
	}
	return &Composer{maxSourceRunes: maxSourceRunes}
}

// MaxSourceRunes returns the configured source material budget.
func (c *Composer) MaxSourceRunes() int {
	return c.maxSourceRunes
}

// ComposeOpening builds the request for exchange 1.
func (c *Composer) ComposeOpening(sourceMaterial, focusQuestion string) Prompt {
	var b strings.Builder
	b.WriteString(baseSystemPrompt)
	b.WriteString("\n")
	b.WriteString(stageInstructions(domain.StageGround))
	b.WriteString(openingInstructions)
	c.writeMaterial(&b, sourceMaterial, focusQuestion)

	return Prompt{
		System: b.String(),
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: focusQuestion},
		},
	}
}

// ComposeContinuation builds the request for a follow-up exchange. history is
// the log before the latest user message; only user and ai entries are sent.
func (c *Composer) ComposeContinuation(
	stage domain.Stage,
	sourceMaterial, focusQuestion string,
	history []domain.DialogueEntry,
	latestUserText string,
) Prompt {
	var b strings.Builder
	b.WriteString(baseSystemPrompt)
	b.WriteString("\n")
	b.WriteString(stageInstructions(stage))
	c.writeMaterial(&b, sourceMaterial, focusQuestion)

	msgs := HistoryMessages(history)
	msgs = append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: latestUserText})

	return Prompt{
		System:   b.String(),
		Messages: msgs,
	}
}

// ComposeReflectionRequest builds the dedicated request for one reflection question.
func (c *Composer) ComposeReflectionRequest(stage domain.Stage, recent []domain.DialogueEntry) Prompt {
	var b strings.Builder
	b.WriteString(reflectionSystemPrompt)
	fmt.Fprintf(&b, "\nThe dialogue is currently in the %q stage.\n", stage)

	var u strings.Builder
	u.WriteString("Recent exchanges:\n")
	writeTranscript(&u, recent)
	u.WriteString("\nWrite the reflection question now.")

	return Prompt{
		System: b.String(),
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: u.String()},
		},
	}
}

// AnalysisInput is everything the final analysis request is built from.
type AnalysisInput struct {
	FocusQuestion string
	Duration      time.Duration
	ExchangeCount int
	Log           []domain.DialogueEntry
	ContentAnswer string
	ProcessAnswer string
}

// ComposeAnalysis builds the end-of-session analysis request.
func (c *Composer) ComposeAnalysis(in AnalysisInput) Prompt {
	var b strings.Builder
	b.WriteString(analysisSystemPrompt)
	b.WriteString("\nTemplate:\n\n")
	b.WriteString(AnalysisTemplate(in.FocusQuestion, in.Duration))

	var u strings.Builder
	fmt.Fprintf(&u, "Focus question: %s\n", in.FocusQuestion)
	fmt.Fprintf(&u, "Session duration: %s\n", FormatDuration(in.Duration))
	fmt.Fprintf(&u, "Exchanges: %d\n\n", in.ExchangeCount)
	u.WriteString("Transcript:\n---\n")
	writeTranscript(&u, in.Log)
	u.WriteString("---\n\n")
	u.WriteString("End-of-session reflections:\n")
	fmt.Fprintf(&u, "Content Learning: %s\n", in.ContentAnswer)
	fmt.Fprintf(&u, "Process Learning: %s\n", in.ProcessAnswer)

	return Prompt{
		System: b.String(),
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: u.String()},
		},
	}
}

// AnalysisTemplate renders the literal layout the analysis parser expects.
func AnalysisTemplate(focusQuestion string, d time.Duration) string {
	var b strings.Builder
	b.WriteString("# Learning Session Analysis\n")
	fmt.Fprintf(&b, "## %s\n", focusQuestion)
	fmt.Fprintf(&b, "**Duration:** %s\n\n", FormatDuration(d))
	for i, h := range analysis.Headings {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, h)
		b.WriteString("<content>\n\n")
	}
	return b.String()
}

// HistoryMessages maps user and ai log entries to chat messages in log order.
func HistoryMessages(history []domain.DialogueEntry) []domain.ChatMessage {
	msgs := make([]domain.ChatMessage, 0, len(history)+1)
	for _, e := range history {
		switch e.Kind {
		case domain.EntryUser:
			msgs = append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: e.Content})
		case domain.EntryAI:
			msgs = append(msgs, domain.ChatMessage{Role: domain.RoleAssistant, Content: e.Content})
		}
	}
	return msgs
}

// FormatDuration renders a session duration for prompts and reports.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Round(time.Second) / time.Second)
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	mins := int(d.Round(time.Minute) / time.Minute)
	if mins == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}

func (c *Composer) writeMaterial(b *strings.Builder, sourceMaterial, focusQuestion string) {
	b.WriteString("\nSource material:\n<<<\n")
	b.WriteString(c.fitSource(sourceMaterial))
	b.WriteString("\n>>>\n\n")
	fmt.Fprintf(b, "Learner's focus question: %s\n", focusQuestion)
}

func writeTranscript(b *strings.Builder, entries []domain.DialogueEntry) {
	for _, e := range entries {
		switch e.Kind {
		case domain.EntryUser:
			fmt.Fprintf(b, "Learner: %s\n", e.Content)
		case domain.EntryAI:
			fmt.Fprintf(b, "Partner: %s\n", e.Content)
		case domain.EntryReflection:
			fmt.Fprintf(b, "Reflection: %s\n", e.Content)
		}
	}
}
