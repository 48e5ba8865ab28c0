// Package analysis turns the model's free-text session analysis into a
// header block and an ordered list of titled, tagged sections.
package analysis

import (
	"regexp"
	"strings"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

var (
	titleRe    = regexp.MustCompile(`(?m)^[ \t]*#[ \t]+(.+?)[ \t]*$`)
	subtitleRe = regexp.MustCompile(`(?m)^[ \t]*##[ \t]+(.+?)[ \t]*$`)
	durationRe = regexp.MustCompile(`(?mi)^[ \t]*[*_]{0,2}duration[*_]{0,2}:[*_]{0,2}[ \t]*(.+?)[ \t]*$`)

	// A numbered heading on its own line: "**1. Session Summary**",
	// "**1. Session Summary:**" or "### 1. Session Summary".
	headingRe = regexp.MustCompile(`(?m)^[ \t]*(?:\*\*[ \t]*(\d+)\.[ \t]*([^*\n]*?)[ \t]*:?[ \t]*\*\*|#{3,4}[ \t]*(\d+)\.[ \t]*([^\n]*?))[ \t]*:?[ \t]*$`)

	emphasisRe = regexp.MustCompile(`(?:\*{1,2}|_{1,2})(` +
		regexp.QuoteMeta(LabelContentLearning) + `|` +
		regexp.QuoteMeta(LabelProcessLearning) + `)(?:\*{1,2}|_{1,2})`)
)

// Parse splits raw analysis text into a header and sections. It never fails:
// text without numbered headings yields no sections and Degraded is set.
func Parse(raw string) *domain.AnalysisResult {
	res := &domain.AnalysisResult{RawText: raw}

	header := parseHeader(raw)
	if !header.Empty() {
		res.Header = &header
	}

	matches := headingRe.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		res.Degraded = true
		return res
	}

	for i, m := range matches {
		title := headingTitle(raw, m)
		bodyEnd := len(raw)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := strings.TrimSpace(raw[m[1]:bodyEnd])
		if title == "" || body == "" {
			continue
		}

		tag := TagFor(title)
		if tag == TagLearnerReflections {
			body = emphasizeLabels(body)
		}
		res.Sections = append(res.Sections, domain.Section{
			Title: title,
			Body:  body,
			Tag:   tag,
		})
	}

	return res
}

// TagFor returns the presentation tag for a section heading.
func TagFor(title string) string {
	t := strings.ToLower(title)
	for _, row := range tagTable {
		if strings.Contains(t, row.needle) {
			return row.tag
		}
	}
	return domain.SectionTagGeneral
}

func parseHeader(raw string) domain.AnalysisHeader {
	var h domain.AnalysisHeader
	if m := titleRe.FindStringSubmatch(raw); m != nil {
		h.Title = stripEmphasis(m[1])
	}
	if m := subtitleRe.FindStringSubmatch(raw); m != nil {
		h.Subtitle = stripEmphasis(m[1])
	}
	if m := durationRe.FindStringSubmatch(raw); m != nil {
		h.Duration = stripEmphasis(m[1])
	}
	return h
}

func headingTitle(raw string, m []int) string {
	// Groups 2 and 4 hold the title for the bold and the hash form.
	for _, g := range []int{2, 4} {
		start, end := m[2*g], m[2*g+1]
		if start >= 0 {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw[start:end]), ":"))
		}
	}
	return ""
}

func emphasizeLabels(body string) string {
	return emphasisRe.ReplaceAllString(body, "**$1**")
}

func stripEmphasis(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_"))
}
