package analysis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/socratic-dialogue/internal/app/analysis"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

const wellFormed = `# Learning Session Analysis
## What is the main claim?
**Duration:** 14 minutes

**1. Session Summary**
You examined the article's central argument.

**2. Thinking Shown**
- Identified the thesis early
- Questioned the sample size

**3. Key Insights**
Correlation was separated from causation.

**4. Follow-up Ideas**
Read the cited meta-analysis.

**5. Reflective Summary**
Your questions sharpened as the session went on.

**6. Learner Reflections**
*Content Learning:* the claim rests on one study.
_Process Learning:_ asking "how do we know?" helped.
`

func TestParseWellFormed(t *testing.T) {
	res := analysis.Parse(wellFormed)

	require.NotNil(t, res.Header)
	assert.Equal(t, "Learning Session Analysis", res.Header.Title)
	assert.Equal(t, "What is the main claim?", res.Header.Subtitle)
	assert.Equal(t, "14 minutes", res.Header.Duration)
	assert.False(t, res.Degraded)

	require.Len(t, res.Sections, 6)
	wantTags := []string{
		analysis.TagSummary,
		analysis.TagThinking,
		analysis.TagInsights,
		analysis.TagFollowUp,
		analysis.TagReflective,
		analysis.TagLearnerReflections,
	}
	for i, sec := range res.Sections {
		assert.Equal(t, analysis.Headings[i], sec.Title)
		assert.Equal(t, wantTags[i], sec.Tag)
		assert.Equal(t, strings.TrimSpace(sec.Body), sec.Body)
	}

	assert.Equal(t, "- Identified the thesis early\n- Questioned the sample size", res.Sections[1].Body)
}

func TestParseEmphasizesLearnerLabels(t *testing.T) {
	res := analysis.Parse(wellFormed)
	require.Len(t, res.Sections, 6)

	body := res.Sections[5].Body
	assert.Contains(t, body, "**Content Learning:** the claim")
	assert.Contains(t, body, "**Process Learning:** asking")

	// Other sections are left untouched.
	raw := "**1. Key Insights**\n*Content Learning:* stays italic\n"
	other := analysis.Parse(raw)
	require.Len(t, other.Sections, 1)
	assert.Equal(t, "*Content Learning:* stays italic", other.Sections[0].Body)
}

func TestParseTrimIsIdempotent(t *testing.T) {
	first := analysis.Parse(wellFormed)

	var b strings.Builder
	for _, s := range first.Sections {
		b.WriteString("**1. " + s.Title + "**\n\n   " + s.Body + "   \n\n")
	}
	second := analysis.Parse(b.String())

	require.Len(t, second.Sections, len(first.Sections))
	for i := range first.Sections {
		assert.Equal(t, first.Sections[i].Body, second.Sections[i].Body)
	}
}

func TestParseNoHeadings(t *testing.T) {
	res := analysis.Parse("The model ignored the template and wrote prose.")

	assert.Empty(t, res.Sections)
	assert.True(t, res.Degraded)
	assert.Nil(t, res.Header)

	display := res.DisplaySections()
	require.Len(t, display, 1)
	assert.Equal(t, "", display[0].Title)
	assert.Equal(t, domain.SectionTagGeneral, display[0].Tag)
	assert.Equal(t, res.RawText, display[0].Body)
}

func TestParseEmptyInput(t *testing.T) {
	res := analysis.Parse("")
	assert.Empty(t, res.Sections)
	assert.Empty(t, res.DisplaySections())
}

func TestParseDropsEmptySections(t *testing.T) {
	raw := "**1. Session Summary**\n\n**2. Key Insights**\nOne insight.\n**3.  **\nOrphan body\n"
	res := analysis.Parse(raw)

	require.Len(t, res.Sections, 1)
	assert.Equal(t, "Key Insights", res.Sections[0].Title)
	assert.Equal(t, "One insight.", res.Sections[0].Body)
}

func TestParseHeaderPartsAreIndependent(t *testing.T) {
	res := analysis.Parse("Duration: 3 minutes\n**1. Session Summary**\nShort.\n")
	require.NotNil(t, res.Header)
	assert.Empty(t, res.Header.Title)
	assert.Empty(t, res.Header.Subtitle)
	assert.Equal(t, "3 minutes", res.Header.Duration)
	require.Len(t, res.Sections, 1)
}

func TestParseHashHeadingsAndColons(t *testing.T) {
	raw := "### 1. Session Summary\nBody one.\n**2. Follow-up Ideas:**\nBody two.\n"
	res := analysis.Parse(raw)

	require.Len(t, res.Sections, 2)
	assert.Equal(t, "Session Summary", res.Sections[0].Title)
	assert.Equal(t, "Follow-up Ideas", res.Sections[1].Title)
	assert.Equal(t, analysis.TagFollowUp, res.Sections[1].Tag)
}

func TestTagFor(t *testing.T) {
	tests := map[string]string{
		"SESSION SUMMARY":          analysis.TagSummary,
		"Evidence of Thinking":     analysis.TagThinking,
		"Insights Gained":          analysis.TagInsights,
		"Follow up questions":      analysis.TagFollowUp,
		"A Reflective Summary":     analysis.TagReflective,
		"Your Learner Reflections": analysis.TagLearnerReflections,
		"Miscellaneous":            domain.SectionTagGeneral,
	}
	for title, want := range tests {
		assert.Equal(t, want, analysis.TagFor(title), title)
	}
}
