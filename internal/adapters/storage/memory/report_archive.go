package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

// ReportArchive is an in-memory domain.ReportArchive.
// It is NOT persistent and is only suitable for development / local mode.
type ReportArchive struct {
	mu      sync.RWMutex
	reports map[domain.ReportID]*domain.Report
	order   []domain.ReportID
}

func NewReportArchive() *ReportArchive {
	return &ReportArchive{
		reports: make(map[domain.ReportID]*domain.Report),
	}
}

func (a *ReportArchive) SaveReport(_ context.Context, report *domain.Report) error {
	if report == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.reports[report.ID]; exists {
		return domain.ErrReportExists
	}

	a.reports[report.ID] = report
	a.order = append(a.order, report.ID)
	return nil
}

func (a *ReportArchive) GetReport(_ context.Context, id domain.ReportID) (*domain.Report, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r, ok := a.reports[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return r, nil
}

// ListReports returns the last `limit` reports, newest first.
// If limit <= 0, returns all.
func (a *ReportArchive) ListReports(_ context.Context, limit int) ([]*domain.Report, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 || limit > len(a.order) {
		limit = len(a.order)
	}

	out := make([]*domain.Report, 0, limit)
	for i := len(a.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.reports[a.order[i]])
	}
	return out, nil
}
