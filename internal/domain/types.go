package domain

import "time"

type SessionID string
type ReportID string

type Timestamp = time.Time

// Role is the speaker of a message sent to the completion gateway.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// EntryKind classifies a dialogue log entry.
type EntryKind string

const (
	EntrySystem     EntryKind = "system"
	EntryUser       EntryKind = "user"
	EntryAI         EntryKind = "ai"
	EntryReflection EntryKind = "reflection"
)

// Stage is the pedagogical stage of a dialogue, derived from the exchange count.
type Stage string

const (
	StageGround  Stage = "ground"  // Establish understanding of the material
	StageStretch Stage = "stretch" // Challenge assumptions, consider alternatives
	StageDeepen  Stage = "deepen"  // Synthesis, implications, transfer
)

const (
	groundMaxExchange  = 4
	stretchMaxExchange = 8
)

// StageOf maps an exchange count to its stage.
func StageOf(exchangeCount int) Stage {
	switch {
	case exchangeCount <= groundMaxExchange:
		return StageGround
	case exchangeCount <= stretchMaxExchange:
		return StageStretch
	default:
		return StageDeepen
	}
}

// State is the lifecycle state of a session.
type State string

const (
	StateSetup         State = "setup"
	StateActive        State = "active"
	StateEndReflection State = "end_reflection"
	StateAnalyzed      State = "analyzed"
)
