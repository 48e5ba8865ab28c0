package session

import "github.com/PabloGalante/socratic-dialogue/internal/domain"

type EventKind string

const (
	// EventReflectionRequested carries a reflection question for the learner.
	EventReflectionRequested EventKind = "reflection_requested"
	// EventReadyToEnd is an advisory: the session has enough depth to close.
	EventReadyToEnd EventKind = "ready_to_end"
)

// Event is a notification emitted by deferred actions after they update the session.
type Event struct {
	Kind          EventKind
	SessionID     domain.SessionID
	Prompt        string
	ExchangeCount int
}

// EventHandler receives events. It is called without the session lock held.
type EventHandler func(Event)
