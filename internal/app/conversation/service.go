package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/socratic-dialogue/internal/app/archive"
	"github.com/PabloGalante/socratic-dialogue/internal/app/export"
	"github.com/PabloGalante/socratic-dialogue/internal/app/prompt"
	"github.com/PabloGalante/socratic-dialogue/internal/app/reflection"
	"github.com/PabloGalante/socratic-dialogue/internal/app/session"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

// Registry holds the live sessions of this process.
type Registry interface {
	Add(s *session.Session) error
	Get(id domain.SessionID) (*session.Session, error)
	Remove(id domain.SessionID) (*session.Session, error)
	Len() int
}

// Settings are applied to every session the service creates.
type Settings struct {
	Composer        *prompt.Composer
	Scheduler       *reflection.Scheduler
	Clock           session.Clock
	ReflectionDelay time.Duration
	AdvisoryDelay   time.Duration
	ReadyToEndAfter int
	Metrics         *observability.Metrics
	// OnEvent also receives every session event, after the service logs it.
	OnEvent session.EventHandler
}

type Service struct {
	gateway   domain.CompletionGateway
	registry  Registry
	archive   *archive.Service
	extractor domain.DocumentExtractor
	settings  Settings
	now       func() time.Time
}

func NewService(
	gateway domain.CompletionGateway,
	registry Registry,
	archiveSvc *archive.Service,
	extractor domain.DocumentExtractor,
	settings Settings,
) *Service {
	if archiveSvc == nil {
		archiveSvc = archive.NewService(nil)
	}
	if settings.Composer == nil {
		settings.Composer = prompt.NewComposer(0)
	}
	if settings.Scheduler == nil {
		settings.Scheduler = reflection.NewScheduler(gateway, settings.Composer, nil, 0)
	}

	return &Service{
		gateway:   gateway,
		registry:  registry,
		archive:   archiveSvc,
		extractor: extractor,
		settings:  settings,
		now:       time.Now,
	}
}

type CreateSessionOutput struct {
	Session session.Snapshot
}

// CreateSession registers a new session in the Setup state.
func (s *Service) CreateSession(ctx context.Context) (*CreateSessionOutput, error) {
	sess, err := s.create(ctx)
	if err != nil {
		return nil, err
	}
	return &CreateSessionOutput{Session: sess.Snapshot()}, nil
}

func (s *Service) create(ctx context.Context) (*session.Session, error) {
	id := domain.SessionID(uuid.NewString())
	log := observability.LoggerFromContext(ctx).With("session_id", id)

	sess := session.New(id, s.gateway, session.Options{
		Composer:        s.settings.Composer,
		Scheduler:       s.settings.Scheduler,
		Clock:           s.settings.Clock,
		OnEvent:         s.handleEvent,
		Metrics:         s.settings.Metrics,
		ReflectionDelay: s.settings.ReflectionDelay,
		AdvisoryDelay:   s.settings.AdvisoryDelay,
		ReadyToEndAfter: s.settings.ReadyToEndAfter,
	})

	if err := s.registry.Add(sess); err != nil {
		log.Error("failed to register session", "error", err)
		return nil, err
	}
	s.settings.Metrics.SetHostedSessions(s.registry.Len())

	log.Info("session created")
	return sess, nil
}

// Document is an uploaded source document.
type Document struct {
	Filename string
	Data     []byte
}

type StartSessionInput struct {
	// SessionID selects an existing session in Setup. Empty creates one.
	SessionID      domain.SessionID
	SourceMaterial string
	// Document is extracted when SourceMaterial is empty.
	Document      *Document
	FocusQuestion string
}

type StartSessionOutput struct {
	Session session.Snapshot
	Turn    session.TurnResult
}

func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	source := in.SourceMaterial
	if source == "" && in.Document != nil && s.extractor != nil {
		source = s.extractor.Extract(ctx, in.Document.Filename, in.Document.Data)
	}

	var (
		sess    *session.Session
		created bool
		err     error
	)
	if in.SessionID == "" {
		sess, err = s.create(ctx)
		created = true
	} else {
		sess, err = s.registry.Get(in.SessionID)
	}
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With("session_id", sess.ID())
	log.Info("starting session")

	turn, err := sess.Start(ctx, source, in.FocusQuestion)
	if err != nil {
		log.Warn("start rejected", "error", err)
		if created {
			_ = s.remove(sess.ID())
		}
		return nil, err
	}

	if turn.GatewayErr != nil {
		log.Warn("opening exchange failed", "error", turn.GatewayErr)
	} else {
		log.Info("session started")
	}

	return &StartSessionOutput{
		Session: sess.Snapshot(),
		Turn:    turn,
	}, nil
}

type SendMessageInput struct {
	SessionID domain.SessionID
	Text      string
}

type SendMessageOutput struct {
	Turn    session.TurnResult
	Session session.Snapshot
}

func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	sess, err := s.registry.Get(in.SessionID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With("session_id", sess.ID())
	log.Info("sending message", "text_len", len(in.Text))

	turn, err := sess.SendTurn(ctx, in.Text)
	if err != nil {
		log.Error("send message failed", "error", err)
		return nil, err
	}

	switch {
	case !turn.Accepted:
		log.Info("message ignored")
	case turn.GatewayErr != nil:
		log.Warn("turn recorded with gateway failure", "exchange", turn.ExchangeCount, "error", turn.GatewayErr)
	default:
		log.Info("send message completed", "exchange", turn.ExchangeCount, "stage", turn.Stage)
	}

	return &SendMessageOutput{
		Turn:    turn,
		Session: sess.Snapshot(),
	}, nil
}

type RecordReflectionInput struct {
	SessionID domain.SessionID
	Prompt    string
	Response  string
}

func (s *Service) RecordReflection(ctx context.Context, in RecordReflectionInput) (session.Snapshot, error) {
	return s.apply(ctx, in.SessionID, "record reflection", func(sess *session.Session) error {
		return sess.RecordReflection(in.Prompt, in.Response)
	})
}

func (s *Service) LockSession(ctx context.Context, id domain.SessionID) (session.Snapshot, error) {
	return s.apply(ctx, id, "lock", func(sess *session.Session) error {
		return sess.Lock()
	})
}

type SubmitEndReflectionInput struct {
	SessionID     domain.SessionID
	ContentAnswer string
	ProcessAnswer string
}

func (s *Service) SubmitEndReflection(ctx context.Context, in SubmitEndReflectionInput) (session.Snapshot, error) {
	return s.apply(ctx, in.SessionID, "submit end reflection", func(sess *session.Session) error {
		return sess.SubmitEndReflection(ctx, in.ContentAnswer, in.ProcessAnswer)
	})
}

func (s *Service) ResetSession(ctx context.Context, id domain.SessionID) (session.Snapshot, error) {
	return s.apply(ctx, id, "reset", func(sess *session.Session) error {
		sess.Reset()
		return nil
	})
}

func (s *Service) GetSession(ctx context.Context, id domain.SessionID) (session.Snapshot, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("session lookup failed", "session_id", id, "error", err)
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

type ExportSessionInput struct {
	SessionID domain.SessionID
	Format    export.Format
}

type ExportSessionOutput struct {
	Report      *domain.Report
	Data        []byte
	ContentType string
	Archived    bool
}

// ExportSession renders the session report and archives it. An archive
// failure is logged and does not fail the export.
func (s *Service) ExportSession(ctx context.Context, in ExportSessionInput) (*ExportSessionOutput, error) {
	sess, err := s.registry.Get(in.SessionID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With("session_id", sess.ID(), "format", in.Format)

	snap := sess.Snapshot()
	if snap.State == domain.StateSetup {
		return nil, &domain.PreconditionError{Op: "export", Reason: "session has not started"}
	}

	format := in.Format
	if format == "" {
		format = export.FormatText
	}

	report := export.BuildReport(snap, s.now())
	data, err := export.Render(report, format)
	if err != nil {
		log.Error("failed to render report", "error", err)
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	out := &ExportSessionOutput{
		Report:      report,
		Data:        data,
		ContentType: format.ContentType(),
	}
	if s.archive.Enabled() {
		if err := s.archive.Archive(ctx, report); err != nil {
			log.Warn("export not archived", "error", err)
		} else {
			out.Archived = true
		}
	}

	log.Info("session exported", "report_id", report.ID, "bytes", len(data))
	return out, nil
}

func (s *Service) DeleteSession(ctx context.Context, id domain.SessionID) error {
	if err := s.remove(id); err != nil {
		observability.LoggerFromContext(ctx).Warn("delete failed", "session_id", id, "error", err)
		return err
	}
	observability.LoggerFromContext(ctx).Info("session deleted", "session_id", id)
	return nil
}

func (s *Service) ListReports(ctx context.Context, limit int) ([]*domain.Report, error) {
	return s.archive.ListReports(ctx, limit)
}

func (s *Service) GetReport(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	return s.archive.GetReport(ctx, id)
}

func (s *Service) remove(id domain.SessionID) error {
	sess, err := s.registry.Remove(id)
	if err != nil {
		return err
	}
	sess.Close()
	s.settings.Metrics.SetHostedSessions(s.registry.Len())
	return nil
}

func (s *Service) apply(
	ctx context.Context,
	id domain.SessionID,
	op string,
	fn func(*session.Session) error,
) (session.Snapshot, error) {
	sess, err := s.registry.Get(id)
	if err != nil {
		return session.Snapshot{}, err
	}

	log := observability.LoggerFromContext(ctx).With("session_id", id, "op", op)
	if err := fn(sess); err != nil {
		log.Warn("operation rejected", "error", err)
		return session.Snapshot{}, err
	}

	snap := sess.Snapshot()
	log.Info("operation applied", "state", snap.State)
	return snap, nil
}

func (s *Service) handleEvent(evt session.Event) {
	observability.WithFields("session_id", evt.SessionID).Info("session event",
		"kind", evt.Kind,
		"exchange", evt.ExchangeCount,
	)
	if s.settings.OnEvent != nil {
		s.settings.OnEvent(evt)
	}
}
