package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

const elisionChunkRunes = 500

var elisionSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// fitSource keeps the head (two thirds of the budget) and the tail (one
// third) of oversized material, cutting at paragraph or sentence boundaries
// where possible, and marks the omitted middle.
func (c *Composer) fitSource(src string) string {
	total := utf8.RuneCountInString(src)
	if total <= c.maxSourceRunes {
		return src
	}

	headBudget := c.maxSourceRunes * 2 / 3
	tailBudget := c.maxSourceRunes - headBudget

	headEnd, tailStart := boundaryCuts(src, headBudget, tailBudget)
	if headEnd == 0 {
		headEnd = runeOffset(src, headBudget)
	}
	if tailStart >= len(src) || tailStart < headEnd {
		tailStart = len(src) - len(lastRunes(src, tailBudget))
	}

	head := strings.TrimRight(src[:headEnd], " \t\n")
	tail := strings.TrimLeft(src[tailStart:], " \t\n")
	omitted := total - utf8.RuneCountInString(head) - utf8.RuneCountInString(tail)

	return head + fmt.Sprintf("\n\n[... %d characters omitted ...]\n\n", omitted) + tail
}

// boundaryCuts returns the byte offset where the kept head ends and where the
// kept tail starts. Zero or len(src) mean no boundary fit the budget.
func boundaryCuts(src string, headBudget, tailBudget int) (int, int) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(elisionChunkRunes),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators(elisionSeparators),
	)
	chunks, err := splitter.SplitText(src)
	if err != nil || len(chunks) == 0 {
		return 0, len(src)
	}

	type span struct{ start, end int }
	spans := make([]span, 0, len(chunks))
	cursor := 0
	for _, ch := range chunks {
		i := strings.Index(src[cursor:], ch)
		if i < 0 {
			// The splitter normalized this chunk; stop at the last exact match.
			break
		}
		start := cursor + i
		spans = append(spans, span{start: start, end: start + len(ch)})
		cursor = start + len(ch)
	}

	headEnd := 0
	for _, sp := range spans {
		if utf8.RuneCountInString(src[:sp.end]) > headBudget {
			break
		}
		headEnd = sp.end
	}

	tailStart := len(src)
	for i := len(spans) - 1; i >= 0; i-- {
		sp := spans[i]
		if sp.start < headEnd || utf8.RuneCountInString(src[sp.start:]) > tailBudget {
			break
		}
		tailStart = sp.start
	}

	return headEnd, tailStart
}

func runeOffset(s string, n int) int {
	off := 0
	for i := 0; i < n && off < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[off:])
		off += size
	}
	return off
}

func lastRunes(s string, n int) string {
	total := utf8.RuneCountInString(s)
	if n >= total {
		return s
	}
	return s[runeOffset(s, total-n):]
}
