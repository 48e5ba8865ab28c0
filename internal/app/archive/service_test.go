package archive_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/PabloGalante/socratic-dialogue/internal/adapters/storage/memory"
	"github.com/PabloGalante/socratic-dialogue/internal/app/archive"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

func TestListReportsDefaultsLimit(t *testing.T) {
	ctx := context.Background()
	svc := archive.NewService(memory.NewReportArchive())

	for i := 0; i < 25; i++ {
		r := &domain.Report{ID: domain.ReportID(fmt.Sprintf("r%02d", i))}
		if err := svc.Archive(ctx, r); err != nil {
			t.Fatalf("Archive failed: %v", err)
		}
	}

	got, err := svc.ListReports(ctx, 0)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected default limit of 20, got %d", len(got))
	}
	if got[0].ID != "r24" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}
}

func TestDisabledArchive(t *testing.T) {
	ctx := context.Background()
	svc := archive.NewService(nil)

	if svc.Enabled() {
		t.Fatal("expected archive to be disabled")
	}
	if err := svc.Archive(ctx, &domain.Report{ID: "r1"}); err != nil {
		t.Fatalf("Archive on disabled service should be a no-op, got %v", err)
	}
	got, err := svc.ListReports(ctx, 5)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %v, %v", got, err)
	}
	if _, err := svc.GetReport(ctx, "r1"); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}
