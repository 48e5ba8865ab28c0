package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/socratic-dialogue/internal/app/prompt"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts a format name; empty selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	case FormatText, FormatMarkdown, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", &domain.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported export format %q", s)}
	}
}

// ContentType is the MIME type of a rendered report.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render renders r in the given format.
func Render(r *domain.Report, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(RenderText(r)), nil
	case FormatMarkdown:
		return []byte(RenderMarkdown(r)), nil
	case FormatJSON:
		return RenderJSON(r)
	case FormatYAML:
		return RenderYAML(r)
	default:
		return nil, &domain.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported export format %q", f)}
	}
}

func RenderText(r *domain.Report) string {
	var b strings.Builder
	b.WriteString("LEARNING SESSION REPORT\n")
	b.WriteString(strings.Repeat("=", 23) + "\n\n")
	fmt.Fprintf(&b, "Focus question: %s\n", r.FocusQuestion)
	fmt.Fprintf(&b, "Duration: %s\n", prompt.FormatDuration(r.Duration))
	fmt.Fprintf(&b, "Exchanges: %d\n", r.ExchangeCount)
	fmt.Fprintf(&b, "Reflections: %d\n", r.ReflectionCount)

	if r.Analysis != nil {
		b.WriteString("\nANALYSIS\n--------\n")
		for _, s := range r.Analysis.DisplaySections() {
			if s.Title != "" {
				fmt.Fprintf(&b, "\n%s\n", strings.ToUpper(s.Title))
			}
			b.WriteString(s.Body)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nDIALOGUE\n--------\n")
	for _, e := range r.DialogueLog {
		fmt.Fprintf(&b, "\n[%s] %s\n", speaker(e.Kind), e.Content)
	}
	return b.String()
}

func RenderMarkdown(r *domain.Report) string {
	var b strings.Builder
	b.WriteString("# Learning Session Report\n\n")
	fmt.Fprintf(&b, "- **Focus question:** %s\n", r.FocusQuestion)
	fmt.Fprintf(&b, "- **Duration:** %s\n", prompt.FormatDuration(r.Duration))
	fmt.Fprintf(&b, "- **Exchanges:** %d\n", r.ExchangeCount)
	fmt.Fprintf(&b, "- **Reflections:** %d\n", r.ReflectionCount)

	if r.Analysis != nil {
		b.WriteString("\n## Analysis\n")
		for _, s := range r.Analysis.DisplaySections() {
			if s.Title != "" {
				fmt.Fprintf(&b, "\n### %s\n", s.Title)
			}
			fmt.Fprintf(&b, "\n%s\n", s.Body)
		}
	}

	b.WriteString("\n## Dialogue\n")
	for _, e := range r.DialogueLog {
		content := strings.ReplaceAll(e.Content, "\n", "\n> ")
		fmt.Fprintf(&b, "\n**%s:**\n> %s\n", speaker(e.Kind), content)
	}
	return b.String()
}

func RenderJSON(r *domain.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report as json: %w", err)
	}
	return data, nil
}

func RenderYAML(r *domain.Report) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding report as yaml: %w", err)
	}
	return data, nil
}

func speaker(k domain.EntryKind) string {
	switch k {
	case domain.EntryUser:
		return "You"
	case domain.EntryAI:
		return "Partner"
	case domain.EntryReflection:
		return "Reflection"
	default:
		return "System"
	}
}
