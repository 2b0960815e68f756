package repository

import (
	"context"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
)

// JobRepository mirrors terminal job snapshots for history queries. The
// live queue remains the source of truth while a job is in flight.
type JobRepository interface {
	SaveTerminal(ctx context.Context, tx Tx, job *model.Job) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)
	ListByOwner(ctx context.Context, tx Tx, owner string, limit int) ([]*model.Job, error)
}
