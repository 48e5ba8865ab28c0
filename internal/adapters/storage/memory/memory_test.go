package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/PabloGalante/socratic-dialogue/internal/adapters/llm"
	"github.com/PabloGalante/socratic-dialogue/internal/adapters/storage/memory"
	"github.com/PabloGalante/socratic-dialogue/internal/app/session"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

func TestSessionRegistry(t *testing.T) {
	reg := memory.NewSessionRegistry()
	s := session.New("s1", llm.NewMockLLM(), session.Options{})

	if err := reg.Add(s); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := reg.Add(s); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	got, err := reg.Get("s1")
	if err != nil || got != s {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", reg.Len())
	}

	if _, err := reg.Remove("s1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := reg.Get("s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := reg.Remove("s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second remove, got %v", err)
	}
}

func TestReportArchiveNewestFirst(t *testing.T) {
	ctx := context.Background()
	a := memory.NewReportArchive()

	for _, id := range []domain.ReportID{"r1", "r2", "r3"} {
		if err := a.SaveReport(ctx, &domain.Report{ID: id}); err != nil {
			t.Fatalf("SaveReport(%s) failed: %v", id, err)
		}
	}
	if err := a.SaveReport(ctx, &domain.Report{ID: "r2"}); !errors.Is(err, domain.ErrReportExists) {
		t.Fatalf("expected ErrReportExists, got %v", err)
	}

	got, err := a.ListReports(ctx, 2)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r3" || got[1].ID != "r2" {
		t.Fatalf("unexpected order: %+v", got)
	}

	all, _ := a.ListReports(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}

	if _, err := a.GetReport(ctx, "missing"); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	r, err := a.GetReport(ctx, "r1")
	if err != nil || r.ID != "r1" {
		t.Fatalf("GetReport returned %v, %v", r, err)
	}
}
