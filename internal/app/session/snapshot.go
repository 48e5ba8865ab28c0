package session

import (
	"time"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID    domain.SessionID
	State domain.State
	Stage domain.Stage

	FocusQuestion  string
	SourceMaterial string

	ExchangeCount int
	Log           []domain.DialogueEntry
	Reflections   []domain.Reflection

	Locked    bool
	StartTime time.Time
	EndTime   time.Time
	// Duration is fixed at lock time; zero before that.
	Duration time.Duration
	// Elapsed is Duration once locked, otherwise the time since start.
	Elapsed time.Duration

	Analysis *domain.AnalysisResult

	Processing        bool
	PendingReflection string
	ReadyToEnd        bool
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:                s.id,
		State:             s.state,
		Stage:             domain.StageOf(s.exchangeCount),
		FocusQuestion:     s.focusQuestion,
		SourceMaterial:    s.sourceMaterial,
		ExchangeCount:     s.exchangeCount,
		Log:               append([]domain.DialogueEntry(nil), s.log...),
		Reflections:       append([]domain.Reflection(nil), s.reflections...),
		Locked:            s.locked,
		StartTime:         s.startTime,
		EndTime:           s.endTime,
		Duration:          s.duration,
		Processing:        s.processing,
		PendingReflection: s.pendingReflection,
		ReadyToEnd:        s.readyToEnd,
	}

	switch {
	case s.locked:
		snap.Elapsed = s.duration
	case !s.startTime.IsZero():
		snap.Elapsed = s.clock.Now().Sub(s.startTime)
	}

	if s.analysis != nil {
		a := *s.analysis
		a.Sections = append([]domain.Section(nil), s.analysis.Sections...)
		if s.analysis.Header != nil {
			h := *s.analysis.Header
			a.Header = &h
		}
		snap.Analysis = &a
	}
	return snap
}
