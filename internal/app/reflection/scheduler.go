// Package reflection decides when a session should ask the learner to
// reflect and produces the reflection question.
package reflection

import (
	"context"
	"strings"
	"time"

	"github.com/PabloGalante/socratic-dialogue/internal/app/prompt"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

const (
	firstTrigger  = 4
	secondTrigger = 8
	triggerPeriod = 6

	// Generated questions longer than this are treated as a failed generation.
	maxQuestionRunes = 400
)

// ShouldTrigger reports whether a reflection is due after the given exchange:
// at 4 and 8, then every 6 exchanges (14, 20, ...).
func ShouldTrigger(exchangeCount int) bool {
	switch {
	case exchangeCount == firstTrigger, exchangeCount == secondTrigger:
		return true
	case exchangeCount > secondTrigger:
		return (exchangeCount-secondTrigger)%triggerPeriod == 0
	default:
		return false
	}
}

// Scheduler generates reflection questions through the completion gateway
// and falls back to a static pool.
type Scheduler struct {
	gateway  domain.CompletionGateway
	composer *prompt.Composer
	pool     *Pool
	timeout  time.Duration
	metrics  *observability.Metrics
}

// NewScheduler builds a Scheduler. A nil pool selects DefaultPool; a zero
// timeout leaves the caller's context deadline in charge.
func NewScheduler(gateway domain.CompletionGateway, composer *prompt.Composer, pool *Pool, timeout time.Duration) *Scheduler {
	if pool == nil {
		pool = DefaultPool()
	}
	if composer == nil {
		composer = prompt.NewComposer(0)
	}
	return &Scheduler{
		gateway:  gateway,
		composer: composer,
		pool:     pool,
		timeout:  timeout,
	}
}

// WithMetrics records the source of every question on m.
func (s *Scheduler) WithMetrics(m *observability.Metrics) *Scheduler {
	s.metrics = m
	return s
}

// GeneratePrompt returns one reflection question. It never fails: gateway
// errors and unusable output fall back to the pool.
func (s *Scheduler) GeneratePrompt(ctx context.Context, stage domain.Stage, recent []domain.DialogueEntry) string {
	log := observability.LoggerFromContext(ctx).With("stage", stage)

	if s.gateway == nil {
		return s.Fallback(stage)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	p := s.composer.ComposeReflectionRequest(stage, recent)
	text, err := s.gateway.Complete(ctx, p.System, p.Messages)
	if err != nil {
		log.Warn("reflection generation failed, using fallback", "error", err)
		return s.Fallback(stage)
	}

	q := cleanQuestion(text)
	if q == "" {
		log.Warn("reflection generation returned unusable text, using fallback")
		return s.Fallback(stage)
	}
	s.metrics.ObserveReflection("generated")
	return q
}

// Fallback picks a question from the pool without calling the gateway.
func (s *Scheduler) Fallback(stage domain.Stage) string {
	s.metrics.ObserveReflection("fallback")
	return s.pool.Pick(stage)
}

// RecentHistory returns the last n user and ai entries of a log, in order.
func RecentHistory(log []domain.DialogueEntry, n int) []domain.DialogueEntry {
	var out []domain.DialogueEntry
	for i := len(log) - 1; i >= 0 && len(out) < n; i-- {
		if log[i].Kind == domain.EntryUser || log[i].Kind == domain.EntryAI {
			out = append(out, log[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func cleanQuestion(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'“”*")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len([]rune(line)) > maxQuestionRunes {
			return ""
		}
		return line
	}
	return ""
}
