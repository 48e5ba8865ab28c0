package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/PabloGalante/socratic-dialogue/internal/adapters/extract"
	"github.com/PabloGalante/socratic-dialogue/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/socratic-dialogue/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/socratic-dialogue/internal/adapters/storage/memory"
	"github.com/PabloGalante/socratic-dialogue/internal/app/archive"
	"github.com/PabloGalante/socratic-dialogue/internal/app/conversation"
	"github.com/PabloGalante/socratic-dialogue/internal/app/prompt"
	"github.com/PabloGalante/socratic-dialogue/internal/app/reflection"
	"github.com/PabloGalante/socratic-dialogue/internal/app/session"
	"github.com/PabloGalante/socratic-dialogue/internal/config"
	"github.com/PabloGalante/socratic-dialogue/internal/domain"
	"github.com/PabloGalante/socratic-dialogue/internal/observability"
)

// app is the wired service graph shared by serve and chat.
type app struct {
	svc      *conversation.Service
	registry *prometheus.Registry
	closers  []func(context.Context) error
}

// buildApp wires the service graph. On error, everything opened so far is
// closed before returning.
func buildApp(ctx context.Context, cfg *config.Config, onEvent session.EventHandler) (_ *app, err error) {
	log := observability.Logger()
	a := &app{registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close(context.Background()))
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(a.registry)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingOptions{
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		ServiceName:  cfg.Tracing.ServiceName,
		Version:      version,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdownTracing)

	gw, err := llm.NewGateway(ctx, cfg.LLM, metrics)
	if err != nil {
		return nil, fmt.Errorf("initializing %s gateway: %w", cfg.LLM.Provider, err)
	}
	log.Info("completion gateway ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	composer := prompt.NewComposer(cfg.Session.MaxSourceChars)

	pool, err := reflection.LoadPool(cfg.Session.FallbackPoolFile)
	if err != nil {
		return nil, err
	}
	if cfg.Session.RandomFallback {
		pool.WithRandom(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	scheduler := reflection.NewScheduler(gw, composer, pool, cfg.LLM.Timeout).WithMetrics(metrics)

	var store domain.ReportArchive
	switch cfg.Archive.Backend {
	case config.ArchiveFirestore:
		log.Info("using firestore report archive", "project", cfg.Archive.GCPProjectID, "collection", cfg.Archive.Collection)
		fs, fsErr := firestorestore.NewReportArchive(ctx, cfg.Archive.GCPProjectID, cfg.Archive.Collection)
		if fsErr != nil {
			return nil, fmt.Errorf("initializing firestore archive: %w", fsErr)
		}
		store = fs
		a.closers = append(a.closers, func(context.Context) error { return fs.Close() })
	case config.ArchiveMemory:
		log.Info("using in-memory report archive")
		store = memstore.NewReportArchive()
	default:
		log.Info("report archive disabled")
	}

	a.svc = conversation.NewService(
		gw,
		memstore.NewSessionRegistry(),
		archive.NewService(store),
		extract.NewPlainText(0),
		conversation.Settings{
			Composer:        composer,
			Scheduler:       scheduler,
			ReflectionDelay: cfg.Session.ReflectionDelay,
			AdvisoryDelay:   cfg.Session.AdvisoryDelay,
			ReadyToEndAfter: cfg.Session.ReadyToEndAfter,
			Metrics:         metrics,
			OnEvent:         onEvent,
		},
	)
	return a, nil
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}
