package domain

import "time"

// DialogueEntry is one line of the session transcript.
// Entries are never mutated after they are appended to a log.
type DialogueEntry struct {
	Kind      EntryKind `json:"kind" yaml:"kind"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp Timestamp `json:"timestamp" yaml:"timestamp"`
}

// Reflection is a (question, answer) pair captured during or at the end of a session.
type Reflection struct {
	Prompt    string    `json:"prompt" yaml:"prompt"`
	Response  string    `json:"response" yaml:"response"`
	Timestamp Timestamp `json:"timestamp" yaml:"timestamp"`
}

// Section is one titled block of a parsed analysis.
type Section struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
	// Tag is a presentation grouping label, e.g. "summary" or "insights".
	Tag string `json:"tag" yaml:"tag"`
}

// AnalysisHeader holds the optional title block of an analysis.
type AnalysisHeader struct {
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Empty reports whether none of the header lines were found.
func (h AnalysisHeader) Empty() bool {
	return h.Title == "" && h.Subtitle == "" && h.Duration == ""
}

// AnalysisResult is the structured end-of-session analysis.
type AnalysisResult struct {
	RawText  string          `json:"raw_text" yaml:"raw_text"`
	Header   *AnalysisHeader `json:"header,omitempty" yaml:"header,omitempty"`
	Sections []Section       `json:"sections" yaml:"sections"`

	// Degraded is set when no numbered headings could be found.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	// Unavailable is set when the gateway failed and RawText is the placeholder.
	Unavailable bool `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
}

// DisplaySections returns the sections to present. A degraded result is
// shown as a single unlabeled section holding the raw text.
func (a *AnalysisResult) DisplaySections() []Section {
	if a == nil {
		return nil
	}
	if len(a.Sections) == 0 && a.RawText != "" {
		return []Section{{Body: a.RawText, Tag: SectionTagGeneral}}
	}
	return a.Sections
}

// SectionTagGeneral is the tag given to headings outside the known table.
const SectionTagGeneral = "general"

// ChatMessage is one message of a completion request.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SessionMeta is what a report needs to know about a session besides its log.
type SessionMeta struct {
	FocusQuestion string        `json:"focus_question" yaml:"focus_question"`
	StartTime     time.Time     `json:"start_time" yaml:"start_time"`
	EndTime       time.Time     `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	ExchangeCount int           `json:"exchange_count" yaml:"exchange_count"`
}
