package domain

import "time"

// Report is the exported, flat record of a finished (or in-progress) session.
type Report struct {
	ID        ReportID  `json:"id" yaml:"id"`
	SessionID SessionID `json:"session_id" yaml:"session_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	FocusQuestion   string          `json:"focus_question" yaml:"focus_question"`
	Duration        time.Duration   `json:"duration" yaml:"duration"`
	ExchangeCount   int             `json:"exchange_count" yaml:"exchange_count"`
	ReflectionCount int             `json:"reflection_count" yaml:"reflection_count"`
	Analysis        *AnalysisResult `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	DialogueLog     []DialogueEntry `json:"dialogue_log" yaml:"dialogue_log"`
}
