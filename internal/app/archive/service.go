package archive

import (
	"context"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

const defaultListLimit = 20

// Service reads and writes exported session reports.
type Service struct {
	store domain.ReportArchive
}

// NewService creates an archive service. A nil store disables archiving.
func NewService(store domain.ReportArchive) *Service {
	return &Service{
		store: store,
	}
}

func (s *Service) Enabled() bool { return s.store != nil }

// Archive stores a report. With archiving disabled it does nothing.
func (s *Service) Archive(ctx context.Context, report *domain.Report) error {
	if s.store == nil {
		return nil
	}

	if err := s.store.SaveReport(ctx, report); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to archive report",
			"report_id", report.ID,
			"error", err,
		)
		return err
	}

	observability.LoggerFromContext(ctx).Info("report archived",
		"report_id", report.ID,
		"session_id", report.SessionID,
	)
	return nil
}

// ListReports returns the last `limit` reports, newest first.
// If limit <= 0, a reasonable default value is used.
func (s *Service) ListReports(ctx context.Context, limit int) ([]*domain.Report, error) {
	if s.store == nil {
		return []*domain.Report{}, nil
	}

	if limit <= 0 {
		limit = defaultListLimit
	}

	return s.store.ListReports(ctx, limit)
}

func (s *Service) GetReport(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	if s.store == nil {
		return nil, domain.ErrReportNotFound
	}
	return s.store.GetReport(ctx, id)
}
