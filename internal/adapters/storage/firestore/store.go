package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

// DefaultCollection holds one document per exported report.
const DefaultCollection = "session_reports"

// ReportArchive is a domain.ReportArchive backed by a Firestore collection.
type ReportArchive struct {
	client     *firestore.Client
	collection string
}

// NewReportArchive creates a Firestore archive.
// Uses the project passed (DIALOGUE_ARCHIVE_GCP_PROJECT).
func NewReportArchive(ctx context.Context, projectID, collection string) (*ReportArchive, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore archive")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return NewReportArchiveWithClient(client, collection), nil
}

// NewReportArchiveWithClient wraps an existing client, e.g. one pointed at the emulator.
func NewReportArchiveWithClient(client *firestore.Client, collection string) *ReportArchive {
	if collection == "" {
		collection = DefaultCollection
	}
	return &ReportArchive{client: client, collection: collection}
}

func (a *ReportArchive) Close() error {
	return a.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (a *ReportArchive) reportsCol() *firestore.CollectionRef {
	return a.client.Collection(a.collection)
}

func (a *ReportArchive) reportDoc(id domain.ReportID) *firestore.DocumentRef {
	return a.reportsCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type reportDoc struct {
	SessionID       string       `firestore:"session_id"`
	CreatedAt       time.Time    `firestore:"created_at"`
	FocusQuestion   string       `firestore:"focus_question"`
	DurationMillis  int64        `firestore:"duration_ms"`
	ExchangeCount   int          `firestore:"exchange_count"`
	ReflectionCount int          `firestore:"reflection_count"`
	Analysis        *analysisDoc `firestore:"analysis"`
	DialogueLog     []entryDoc   `firestore:"dialogue_log"`
}

type analysisDoc struct {
	RawText     string       `firestore:"raw_text"`
	Title       string       `firestore:"title"`
	Subtitle    string       `firestore:"subtitle"`
	Duration    string       `firestore:"duration"`
	Sections    []sectionDoc `firestore:"sections"`
	Degraded    bool         `firestore:"degraded"`
	Unavailable bool         `firestore:"unavailable"`
}

type sectionDoc struct {
	Title string `firestore:"title"`
	Body  string `firestore:"body"`
	Tag   string `firestore:"tag"`
}

type entryDoc struct {
	Kind      string    `firestore:"kind"`
	Content   string    `firestore:"content"`
	Timestamp time.Time `firestore:"timestamp"`
}

func toDoc(r *domain.Report) reportDoc {
	doc := reportDoc{
		SessionID:       string(r.SessionID),
		CreatedAt:       r.CreatedAt,
		FocusQuestion:   r.FocusQuestion,
		DurationMillis:  r.Duration.Milliseconds(),
		ExchangeCount:   r.ExchangeCount,
		ReflectionCount: r.ReflectionCount,
		DialogueLog:     make([]entryDoc, 0, len(r.DialogueLog)),
	}
	for _, e := range r.DialogueLog {
		doc.DialogueLog = append(doc.DialogueLog, entryDoc{
			Kind:      string(e.Kind),
			Content:   e.Content,
			Timestamp: e.Timestamp,
		})
	}

	if a := r.Analysis; a != nil {
		ad := &analysisDoc{
			RawText:     a.RawText,
			Degraded:    a.Degraded,
			Unavailable: a.Unavailable,
		}
		if a.Header != nil {
			ad.Title = a.Header.Title
			ad.Subtitle = a.Header.Subtitle
			ad.Duration = a.Header.Duration
		}
		for _, s := range a.Sections {
			ad.Sections = append(ad.Sections, sectionDoc{Title: s.Title, Body: s.Body, Tag: s.Tag})
		}
		doc.Analysis = ad
	}
	return doc
}

func fromDoc(id string, doc reportDoc) *domain.Report {
	r := &domain.Report{
		ID:              domain.ReportID(id),
		SessionID:       domain.SessionID(doc.SessionID),
		CreatedAt:       doc.CreatedAt,
		FocusQuestion:   doc.FocusQuestion,
		Duration:        time.Duration(doc.DurationMillis) * time.Millisecond,
		ExchangeCount:   doc.ExchangeCount,
		ReflectionCount: doc.ReflectionCount,
	}
	for _, e := range doc.DialogueLog {
		r.DialogueLog = append(r.DialogueLog, domain.DialogueEntry{
			Kind:      domain.EntryKind(e.Kind),
			Content:   e.Content,
			Timestamp: e.Timestamp,
		})
	}

	if ad := doc.Analysis; ad != nil {
		a := &domain.AnalysisResult{
			RawText:     ad.RawText,
			Degraded:    ad.Degraded,
			Unavailable: ad.Unavailable,
		}
		h := domain.AnalysisHeader{Title: ad.Title, Subtitle: ad.Subtitle, Duration: ad.Duration}
		if !h.Empty() {
			a.Header = &h
		}
		for _, s := range ad.Sections {
			a.Sections = append(a.Sections, domain.Section{Title: s.Title, Body: s.Body, Tag: s.Tag})
		}
		r.Analysis = a
	}
	return r
}

// ─────────────────────────────────────────
// ReportArchive implementation
// ─────────────────────────────────────────

func (a *ReportArchive) SaveReport(ctx context.Context, report *domain.Report) error {
	_, err := a.reportDoc(report.ID).Create(ctx, toDoc(report))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return domain.ErrReportExists
		}
		return fmt.Errorf("firestore SaveReport: %w", err)
	}
	return nil
}

func (a *ReportArchive) GetReport(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	snap, err := a.reportDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("firestore GetReport: %w", err)
	}

	var doc reportDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetReport decode: %w", err)
	}
	return fromDoc(snap.Ref.ID, doc), nil
}

func (a *ReportArchive) ListReports(ctx context.Context, limit int) ([]*domain.Report, error) {
	q := a.reportsCol().OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Report
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("firestore ListReports: %w", err)
		}

		var doc reportDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode reportDoc: %w", err)
		}
		out = append(out, fromDoc(snap.Ref.ID, doc))
	}
	return out, nil
}
