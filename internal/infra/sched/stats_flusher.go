package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
)

// statsSource is the orchestrator's snapshot view.
type statsSource interface {
	Stats() []*model.BackendStats
}

// StatsFlusher periodically upserts the orchestrator's in-memory backend
// quality records into postgres so they survive restarts.
type StatsFlusher struct {
	interval time.Duration
	source   statsSource
	repo     repository.BackendStatsRepository
	log      *zerolog.Logger
}

func NewStatsFlusher(interval time.Duration, source statsSource, repo repository.BackendStatsRepository, logger *zerolog.Logger) *StatsFlusher {
	flushLog := logger.With().Str("component", "StatsFlusher").Logger()
	return &StatsFlusher{
		interval: interval,
		source:   source,
		repo:     repo,
		log:      &flushLog,
	}
}

func (w *StatsFlusher) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting stats flusher")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush on shutdown; best effort with a short deadline.
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flush(fctx)
			cancel()
			w.log.Info().Msg("Stopping stats flusher")
			return ctx.Err()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *StatsFlusher) flush(ctx context.Context) {
	for _, s := range w.source.Stats() {
		if err := w.repo.Upsert(ctx, repository.NoTX, s); err != nil {
			w.log.Error().Str("backend", s.Backend).Err(err).Msg("stats flush error")
		}
	}
}
