// Package export turns a session snapshot into a flat report and renders it.
package export

import (
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/socratic-dialogue/internal/app/session"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

// BuildReport flattens a snapshot. Sessions that are not locked yet report
// the time elapsed so far as their duration.
func BuildReport(snap session.Snapshot, createdAt time.Time) *domain.Report {
	return &domain.Report{
		ID:              domain.ReportID(uuid.NewString()),
		SessionID:       snap.ID,
		CreatedAt:       createdAt,
		FocusQuestion:   snap.FocusQuestion,
		Duration:        snap.Elapsed,
		ExchangeCount:   snap.ExchangeCount,
		ReflectionCount: len(snap.Reflections),
		Analysis:        snap.Analysis,
		DialogueLog:     append([]domain.DialogueEntry(nil), snap.Log...),
	}
}
