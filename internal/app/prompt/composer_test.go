package prompt_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/socratic-dialogue/internal/app/analysis"
	"github.com/PabloGalante/socratic-dialogue/internal/app/prompt"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

func TestComposeOpening(t *testing.T) {
	c := prompt.NewComposer(0)
	p := c.ComposeOpening("Article text", "What is the main claim?")

	assert.Contains(t, p.System, "Stage: ground")
	assert.Contains(t, p.System, "Article text")
	assert.Contains(t, p.System, "What is the main claim?")
	require.Len(t, p.Messages, 1)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "What is the main claim?"}, p.Messages[0])
}

func TestComposeContinuationStageBlocks(t *testing.T) {
	c := prompt.NewComposer(0)
	want := map[domain.Stage]string{
		domain.StageGround:  "Stage: ground",
		domain.StageStretch: "Stage: stretch",
		domain.StageDeepen:  "Stage: deepen",
	}
	for stage, marker := range want {
		p := c.ComposeContinuation(stage, "src", "focus", nil, "hi")
		assert.Contains(t, p.System, marker)
		for other, m := range want {
			if other != stage {
				assert.NotContains(t, p.System, m)
			}
		}
	}
}

func TestComposeContinuationMessages(t *testing.T) {
	c := prompt.NewComposer(0)
	history := []domain.DialogueEntry{
		{Kind: domain.EntrySystem, Content: "Session started"},
		{Kind: domain.EntryUser, Content: "q1"},
		{Kind: domain.EntryAI, Content: "a1"},
		{Kind: domain.EntryReflection, Content: "r1"},
		{Kind: domain.EntryUser, Content: "q2"},
		{Kind: domain.EntrySystem, Content: "error"},
	}

	p := c.ComposeContinuation(domain.StageStretch, "src", "focus", history, "q3")

	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "q1"},
		{Role: domain.RoleAssistant, Content: "a1"},
		{Role: domain.RoleUser, Content: "q2"},
		{Role: domain.RoleUser, Content: "q3"},
	}, p.Messages)
}

func TestComposeIsDeterministic(t *testing.T) {
	c := prompt.NewComposer(300)
	src := strings.Repeat("A paragraph about evidence. ", 40)
	history := []domain.DialogueEntry{{Kind: domain.EntryUser, Content: "x"}}

	a := c.ComposeContinuation(domain.StageDeepen, src, "f", history, "y")
	b := c.ComposeContinuation(domain.StageDeepen, src, "f", history, "y")
	assert.Equal(t, a, b)
}

func TestSourceWithinBudgetIsEmbeddedVerbatim(t *testing.T) {
	c := prompt.NewComposer(1000)
	src := "Line one.\n\nLine two."
	p := c.ComposeOpening(src, "f")
	assert.Contains(t, p.System, src)
	assert.NotContains(t, p.System, "characters omitted")
}

func TestOversizedSourceIsElided(t *testing.T) {
	const budget = 600
	c := prompt.NewComposer(budget)

	var paras []string
	for i := 0; i < 60; i++ {
		paras = append(paras, "Paragraph "+strings.Repeat("x", 40)+".")
	}
	paras[0] = "OPENING paragraph."
	paras[len(paras)-1] = "CLOSING paragraph."
	src := strings.Join(paras, "\n\n")

	p := c.ComposeOpening(src, "f")

	assert.Contains(t, p.System, "OPENING paragraph.")
	assert.Contains(t, p.System, "CLOSING paragraph.")
	assert.Contains(t, p.System, "characters omitted ...]")

	start := strings.Index(p.System, "<<<\n") + len("<<<\n")
	end := strings.Index(p.System, "\n>>>")
	require.Greater(t, end, start)
	embedded := p.System[start:end]

	marker := embedded[strings.Index(embedded, "\n\n[..."):]
	markerEnd := strings.Index(marker, "]\n\n") + len("]\n\n")
	kept := utf8.RuneCountInString(embedded) - utf8.RuneCountInString(marker[:markerEnd])
	assert.LessOrEqual(t, kept, budget)
}

func TestOversizedSourceWithoutSeparators(t *testing.T) {
	c := prompt.NewComposer(90)
	src := strings.Repeat("é", 300)

	p := c.ComposeOpening(src, "f")
	assert.Contains(t, p.System, "[... 210 characters omitted ...]")
	assert.True(t, utf8.ValidString(p.System))
}

func TestComposeAnalysisCarriesTemplateAndMetadata(t *testing.T) {
	c := prompt.NewComposer(0)
	p := c.ComposeAnalysis(prompt.AnalysisInput{
		FocusQuestion: "What is the main claim?",
		Duration:      14 * time.Minute,
		ExchangeCount: 9,
		Log: []domain.DialogueEntry{
			{Kind: domain.EntryUser, Content: "I think it is X"},
			{Kind: domain.EntryAI, Content: "Why X?"},
		},
		ContentAnswer: "X depends on Y",
		ProcessAnswer: "asking why helped",
	})

	for i, h := range analysis.Headings {
		assert.Contains(t, p.System, "**"+string(rune('1'+i))+". "+h+"**")
	}
	assert.Contains(t, p.System, "**Duration:** 14 minutes")

	require.Len(t, p.Messages, 1)
	body := p.Messages[0].Content
	assert.Contains(t, body, "Exchanges: 9")
	assert.Contains(t, body, "Learner: I think it is X")
	assert.Contains(t, body, "Partner: Why X?")
	assert.Contains(t, body, "Content Learning: X depends on Y")
	assert.Contains(t, body, "Process Learning: asking why helped")
}

func TestAnalysisTemplateRoundTripsThroughParser(t *testing.T) {
	tmpl := prompt.AnalysisTemplate("Focus?", 2*time.Minute)
	res := analysis.Parse(tmpl)

	require.NotNil(t, res.Header)
	assert.Equal(t, "Learning Session Analysis", res.Header.Title)
	assert.Equal(t, "Focus?", res.Header.Subtitle)
	assert.Equal(t, "2 minutes", res.Header.Duration)
	require.Len(t, res.Sections, len(analysis.Headings))
}

func TestComposeReflectionRequest(t *testing.T) {
	c := prompt.NewComposer(0)
	p := c.ComposeReflectionRequest(domain.StageStretch, []domain.DialogueEntry{
		{Kind: domain.EntryUser, Content: "the sample is small"},
		{Kind: domain.EntryAI, Content: "does size matter here?"},
	})

	assert.Contains(t, p.System, "exactly ONE question")
	assert.Contains(t, p.System, `"stretch"`)
	require.Len(t, p.Messages, 1)
	assert.Contains(t, p.Messages[0].Content, "Learner: the sample is small")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45 seconds", prompt.FormatDuration(45*time.Second))
	assert.Equal(t, "1 second", prompt.FormatDuration(time.Second))
	assert.Equal(t, "1 minute", prompt.FormatDuration(70*time.Second))
	assert.Equal(t, "14 minutes", prompt.FormatDuration(14*time.Minute+10*time.Second))
}
