// Package session implements the lifecycle of one dialogue session: setup,
// the active dialogue, the end-of-session reflection and the analysis.
//
// A Session is safe for concurrent use. Gateway calls are made without the
// session lock held; results are applied only if the session has not been
// reset or locked in the meantime.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/socratic-dialogue/internal/app/analysis"
	"github.com/PabloGalante/socratic-dialogue/internal/app/prompt"
	"github.com/PabloGalante/socratic-dialogue/internal/app/reflection"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

const (
	DefaultReflectionDelay = 1500 * time.Millisecond
	DefaultAdvisoryDelay   = time.Second
	DefaultReadyToEndAfter = 8
	defaultRecentWindow    = 6
)

// End-of-session reflection questions. The answers are stored as reflections
// under these prompts.
const (
	EndContentPrompt = "What did you learn about the content?"
	EndProcessPrompt = "What did you learn about how you think and learn?"
)

// Options configures a Session. Zero values select defaults.
type Options struct {
	Composer  *prompt.Composer
	Scheduler *reflection.Scheduler
	Clock     Clock
	OnEvent   EventHandler
	Metrics   *observability.Metrics

	ReflectionDelay time.Duration
	AdvisoryDelay   time.Duration
	ReadyToEndAfter int
	// RecentWindow is how many user/ai entries feed reflection generation.
	RecentWindow int
}

// TurnResult describes the outcome of Start or SendTurn.
type TurnResult struct {
	// Accepted is false when the turn was ignored without side effects.
	Accepted      bool
	ExchangeCount int
	Stage         domain.Stage
	// Reply is the ai entry, or the system entry recording a gateway failure.
	Reply *domain.DialogueEntry
	// GatewayErr is the gateway failure, if any. It is already recorded in the log.
	GatewayErr error

	ReflectionScheduled bool
	ReadyToEndScheduled bool
}

type Session struct {
	id      domain.SessionID
	gateway domain.CompletionGateway

	composer  *prompt.Composer
	scheduler *reflection.Scheduler
	clock     Clock
	onEvent   EventHandler
	metrics   *observability.Metrics

	reflectionDelay time.Duration
	advisoryDelay   time.Duration
	readyToEndAfter int
	recentWindow    int

	mu    sync.Mutex
	epoch uint64

	state          domain.State
	sourceMaterial string
	focusQuestion  string
	exchangeCount  int
	log            []domain.DialogueEntry
	reflections    []domain.Reflection
	locked         bool
	startTime      time.Time
	endTime        time.Time
	duration       time.Duration
	analysis       *domain.AnalysisResult

	processing        bool
	reflecting        bool
	pendingReflection string
	readyToEnd        bool
	advisoryScheduled bool

	timerSeq uint64
	timers   map[uint64]Timer
}

// New creates a session in the Setup state.
func New(id domain.SessionID, gateway domain.CompletionGateway, opts Options) *Session {
	if opts.Composer == nil {
		opts.Composer = prompt.NewComposer(0)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = reflection.NewScheduler(gateway, opts.Composer, nil, 0)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.ReflectionDelay <= 0 {
		opts.ReflectionDelay = DefaultReflectionDelay
	}
	if opts.AdvisoryDelay <= 0 {
		opts.AdvisoryDelay = DefaultAdvisoryDelay
	}
	if opts.ReadyToEndAfter <= 0 {
		opts.ReadyToEndAfter = DefaultReadyToEndAfter
	}
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = defaultRecentWindow
	}

	return &Session{
		id:              id,
		gateway:         gateway,
		composer:        opts.Composer,
		scheduler:       opts.Scheduler,
		clock:           opts.Clock,
		onEvent:         opts.OnEvent,
		metrics:         opts.Metrics,
		reflectionDelay: opts.ReflectionDelay,
		advisoryDelay:   opts.AdvisoryDelay,
		readyToEndAfter: opts.ReadyToEndAfter,
		recentWindow:    opts.RecentWindow,
		state:           domain.StateSetup,
		timers:          make(map[uint64]Timer),
	}
}

func (s *Session) ID() domain.SessionID { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Start validates the setup inputs, moves the session to Active and runs the
// opening exchange.
func (s *Session) Start(ctx context.Context, sourceMaterial, focusQuestion string) (TurnResult, error) {
	sourceMaterial = strings.TrimSpace(sourceMaterial)
	focusQuestion = strings.TrimSpace(focusQuestion)
	if sourceMaterial == "" {
		return TurnResult{}, &domain.ValidationError{Field: "source_material", Reason: "must not be empty"}
	}
	if focusQuestion == "" {
		return TurnResult{}, &domain.ValidationError{Field: "focus_question", Reason: "must not be empty"}
	}

	s.mu.Lock()
	if s.state != domain.StateSetup {
		s.mu.Unlock()
		return TurnResult{}, &domain.PreconditionError{Op: "start", Reason: "session already started"}
	}

	now := s.clock.Now()
	s.sourceMaterial = sourceMaterial
	s.focusQuestion = focusQuestion
	s.startTime = now
	s.state = domain.StateActive
	s.exchangeCount = 1
	s.appendLocked(domain.EntrySystem, "Session started. Focus question: "+focusQuestion)
	s.appendLocked(domain.EntryUser, focusQuestion)

	s.processing = true
	epoch := s.epoch
	p := s.composer.ComposeOpening(sourceMaterial, focusQuestion)
	s.mu.Unlock()

	log := s.logger(ctx)
	log.Info("session started", "source_runes", len([]rune(sourceMaterial)))

	reply, err := s.gateway.Complete(ctx, p.System, p.Messages)

	s.mu.Lock()
	defer s.mu.Unlock()

	res := TurnResult{Accepted: true, ExchangeCount: 1, Stage: domain.StageOf(1)}
	if s.epoch != epoch {
		log.Info("discarding opening reply for a reset session")
		return res, nil
	}
	s.processing = false
	s.applyReplyLocked(&res, reply, err)
	return res, nil
}

// SendTurn submits one learner message. A blank message, a message sent while
// a request is in flight, or one sent outside an active unlocked session is
// ignored and reported as not accepted.
func (s *Session) SendTurn(ctx context.Context, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" || s.processing || s.locked || s.state != domain.StateActive {
		s.mu.Unlock()
		return TurnResult{Accepted: false}, nil
	}

	history := append([]domain.DialogueEntry(nil), s.log...)
	s.appendLocked(domain.EntryUser, text)
	s.exchangeCount++
	count := s.exchangeCount
	stage := domain.StageOf(count)

	s.processing = true
	epoch := s.epoch
	p := s.composer.ComposeContinuation(stage, s.sourceMaterial, s.focusQuestion, history, text)
	s.mu.Unlock()

	log := s.logger(ctx).With("exchange", count, "stage", stage)
	log.Info("sending turn")

	reply, err := s.gateway.Complete(ctx, p.System, p.Messages)

	s.mu.Lock()
	defer s.mu.Unlock()

	res := TurnResult{Accepted: true, ExchangeCount: count, Stage: stage}
	if s.epoch != epoch {
		log.Info("discarding reply for a reset or locked session")
		return res, nil
	}
	s.processing = false
	if !s.applyReplyLocked(&res, reply, err) {
		return res, nil
	}

	if reflection.ShouldTrigger(count) {
		s.scheduleReflectionLocked(epoch, stage)
		res.ReflectionScheduled = true
	}
	if !s.advisoryScheduled && count >= s.readyToEndAfter {
		s.scheduleAdvisoryLocked(epoch)
		res.ReadyToEndScheduled = true
	}
	return res, nil
}

// RecordReflection stores the learner's answer to a reflection question.
// While a scheduler question is pending, question must be that prompt;
// otherwise the caller supplies its own.
func (s *Session) RecordReflection(question, response string) error {
	question = strings.TrimSpace(question)
	response = strings.TrimSpace(response)
	if question == "" {
		return &domain.ValidationError{Field: "prompt", Reason: "must not be empty"}
	}
	if response == "" {
		return &domain.ValidationError{Field: "response", Reason: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive || s.locked {
		return &domain.PreconditionError{Op: "record reflection", Reason: "session is not active"}
	}
	if s.pendingReflection != "" && question != strings.TrimSpace(s.pendingReflection) {
		return &domain.ValidationError{Field: "prompt", Reason: "does not match the pending reflection question"}
	}
	s.addReflectionLocked(question, response)
	s.pendingReflection = ""
	return nil
}

// Lock ends the dialogue and moves the session to the end reflection.
func (s *Session) Lock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state != domain.StateActive:
		return &domain.PreconditionError{Op: "lock", Reason: "session is not active"}
	case len(s.log) < 3:
		return &domain.PreconditionError{Op: "lock", Reason: "at least one full exchange is required"}
	case s.processing:
		return &domain.PreconditionError{Op: "lock", Reason: "a request is in flight"}
	}

	s.endTime = s.clock.Now()
	s.duration = s.endTime.Sub(s.startTime)
	s.locked = true
	s.state = domain.StateEndReflection
	s.pendingReflection = ""
	s.invalidateLocked()

	observability.WithFields("session_id", s.id).Info("session locked",
		"exchanges", s.exchangeCount,
		"duration", s.duration.String(),
	)
	return nil
}

// SubmitEndReflection records the two closing answers and produces the
// analysis. A gateway failure stores a placeholder analysis; the session
// always ends in Analyzed.
func (s *Session) SubmitEndReflection(ctx context.Context, contentAnswer, processAnswer string) error {
	contentAnswer = strings.TrimSpace(contentAnswer)
	processAnswer = strings.TrimSpace(processAnswer)
	if contentAnswer == "" {
		return &domain.ValidationError{Field: "content_answer", Reason: "must not be empty"}
	}
	if processAnswer == "" {
		return &domain.ValidationError{Field: "process_answer", Reason: "must not be empty"}
	}

	s.mu.Lock()
	if s.state != domain.StateEndReflection {
		s.mu.Unlock()
		return &domain.PreconditionError{Op: "submit end reflection", Reason: "session is not awaiting its end reflection"}
	}
	if s.processing {
		s.mu.Unlock()
		return &domain.PreconditionError{Op: "submit end reflection", Reason: "analysis already in progress"}
	}

	in := prompt.AnalysisInput{
		FocusQuestion: s.focusQuestion,
		Duration:      s.duration,
		ExchangeCount: s.exchangeCount,
		Log:           append([]domain.DialogueEntry(nil), s.log...),
		ContentAnswer: contentAnswer,
		ProcessAnswer: processAnswer,
	}
	s.addReflectionLocked(EndContentPrompt, contentAnswer)
	s.addReflectionLocked(EndProcessPrompt, processAnswer)

	s.processing = true
	epoch := s.epoch
	p := s.composer.ComposeAnalysis(in)
	s.mu.Unlock()

	log := s.logger(ctx)
	log.Info("requesting analysis", "exchanges", in.ExchangeCount)

	raw, err := s.gateway.Complete(ctx, p.System, p.Messages)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		log.Info("discarding analysis for a reset session")
		return nil
	}
	s.processing = false

	if err != nil {
		log.Error("analysis failed", "error", err)
		s.metrics.ObserveAnalysis("unavailable")
		s.analysis = &domain.AnalysisResult{RawText: analysis.UnavailableText, Unavailable: true}
		s.appendLocked(domain.EntrySystem, describeFailure(err))
	} else {
		s.analysis = analysis.Parse(raw)
		outcome := "ok"
		if s.analysis.Degraded {
			outcome = "degraded"
		}
		s.metrics.ObserveAnalysis(outcome)
		log.Info("analysis ready", "sections", len(s.analysis.Sections), "degraded", s.analysis.Degraded)
	}
	s.state = domain.StateAnalyzed
	return nil
}

// Reset discards everything and returns the session to Setup. Pending
// deferred actions and in-flight replies from before the reset are dropped.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked()
	s.state = domain.StateSetup
	s.sourceMaterial = ""
	s.focusQuestion = ""
	s.exchangeCount = 0
	s.log = nil
	s.reflections = nil
	s.locked = false
	s.startTime = time.Time{}
	s.endTime = time.Time{}
	s.duration = 0
	s.analysis = nil
	s.processing = false
	s.pendingReflection = ""
	s.readyToEnd = false
	s.advisoryScheduled = false

	observability.WithFields("session_id", s.id).Info("session reset")
}

// Close stops pending deferred actions without changing state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
}

// applyReplyLocked appends the gateway outcome and reports whether it succeeded.
func (s *Session) applyReplyLocked(res *TurnResult, reply string, err error) bool {
	stage := string(res.Stage)
	if err != nil {
		s.metrics.ObserveTurn(stage, "error")
		observability.WithFields("session_id", s.id).Warn("completion failed", "error", err)
		entry := s.appendLocked(domain.EntrySystem, describeFailure(err))
		res.Reply = &entry
		res.GatewayErr = err
		return false
	}
	s.metrics.ObserveTurn(stage, "ok")
	entry := s.appendLocked(domain.EntryAI, reply)
	res.Reply = &entry
	return true
}

func (s *Session) appendLocked(kind domain.EntryKind, content string) domain.DialogueEntry {
	entry := domain.DialogueEntry{Kind: kind, Content: content, Timestamp: s.clock.Now()}
	s.log = append(s.log, entry)
	return entry
}

func (s *Session) addReflectionLocked(question, response string) {
	now := s.clock.Now()
	s.reflections = append(s.reflections, domain.Reflection{
		Prompt:    question,
		Response:  response,
		Timestamp: now,
	})
	s.log = append(s.log, domain.DialogueEntry{
		Kind:      domain.EntryReflection,
		Content:   fmt.Sprintf("Q: %s\nA: %s", question, response),
		Timestamp: now,
	})
}

// invalidateLocked bumps the epoch and stops every pending deferred action.
func (s *Session) invalidateLocked() {
	s.epoch++
	s.reflecting = false
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Session) afterLocked(d time.Duration, f func(id uint64)) {
	s.timerSeq++
	id := s.timerSeq
	s.timers[id] = s.clock.AfterFunc(d, func() { f(id) })
}

func (s *Session) scheduleReflectionLocked(epoch uint64, stage domain.Stage) {
	s.afterLocked(s.reflectionDelay, func(id uint64) {
		s.runReflection(epoch, id, stage)
	})
}

func (s *Session) runReflection(epoch, id uint64, stage domain.Stage) {
	s.mu.Lock()
	delete(s.timers, id)
	if s.epoch != epoch || s.locked || s.state != domain.StateActive {
		s.mu.Unlock()
		return
	}

	var question string
	if s.processing || s.reflecting {
		// Another request holds the gateway; do not compete with it.
		question = s.scheduler.Fallback(stage)
	} else {
		// reflecting never gates learner actions; Lock and Reset drop the
		// late result through the epoch.
		s.reflecting = true
		recent := reflection.RecentHistory(s.log, s.recentWindow)
		s.mu.Unlock()

		ctx := observability.WithSessionID(context.Background(), string(s.id))
		question = s.scheduler.GeneratePrompt(ctx, stage, recent)

		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			return
		}
		s.reflecting = false
	}

	s.pendingReflection = question
	evt := Event{
		Kind:          EventReflectionRequested,
		SessionID:     s.id,
		Prompt:        question,
		ExchangeCount: s.exchangeCount,
	}
	s.mu.Unlock()

	s.emit(evt)
}

func (s *Session) scheduleAdvisoryLocked(epoch uint64) {
	s.advisoryScheduled = true
	s.afterLocked(s.advisoryDelay, func(id uint64) {
		s.mu.Lock()
		delete(s.timers, id)
		if s.epoch != epoch || s.state != domain.StateActive {
			s.mu.Unlock()
			return
		}
		s.readyToEnd = true
		evt := Event{Kind: EventReadyToEnd, SessionID: s.id, ExchangeCount: s.exchangeCount}
		s.mu.Unlock()

		s.emit(evt)
	})
}

func (s *Session) emit(evt Event) {
	if s.onEvent != nil {
		s.onEvent(evt)
	}
}

func (s *Session) logger(ctx context.Context) *slog.Logger {
	return observability.LoggerFromContext(observability.WithSessionID(ctx, string(s.id)))
}

func describeFailure(err error) string {
	var ce *domain.CompletionError
	if errors.As(err, &ce) {
		return fmt.Sprintf("Error: the model service returned status %d. Send your message again to retry.", ce.StatusCode)
	}
	return "Error: the model service could not be reached. Check your connection and send your message again."
}
