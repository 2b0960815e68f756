package repository

import (
	"context"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
)

// BackendStatsRepository persists cross-user backend quality records. The
// orchestrator keeps the hot copy in memory; the sched flusher upserts it.
type BackendStatsRepository interface {
	Upsert(ctx context.Context, tx Tx, stats *model.BackendStats) error
	FindAll(ctx context.Context, tx Tx) ([]*model.BackendStats, error)
}
