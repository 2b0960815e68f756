package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*PostgresJobRepo)(nil)

// PostgresJobRepo mirrors terminal job snapshots. Fed by the queue's
// persistence-sync subscriber; never written while a job is live.
type PostgresJobRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresJobRepo(pool *pgxpool.Pool) *PostgresJobRepo {
	return &PostgresJobRepo{pool: pool}
}

func (r *PostgresJobRepo) SaveTerminal(ctx context.Context, qx repository.Tx, job *model.Job) error {
	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	const q = `
INSERT INTO jobs (
  id, owner, prompt, backends, priority, status, error,
  created_at, started_at, completed_at, results
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  status=$6, error=$7, started_at=$9, completed_at=$10, results=$11;
`
	return execSQL(ctx, r.pool, qx, q,
		job.ID, job.Owner, job.Prompt, job.Backends, job.Priority,
		string(job.Status), job.Error,
		job.CreatedAt, job.StartedAt, job.CompletedAt, results)
}

func (r *PostgresJobRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Job, error) {
	const q = `
SELECT id, owner, prompt, backends, priority, status, error,
       created_at, started_at, completed_at, results
  FROM jobs WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, qx, q, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *PostgresJobRepo) ListByOwner(ctx context.Context, qx repository.Tx, owner string, limit int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, owner, prompt, backends, priority, status, error,
       created_at, started_at, completed_at, results
  FROM jobs WHERE owner=$1 ORDER BY completed_at DESC LIMIT $2;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var status string
	var results []byte
	if err := row.Scan(&j.ID, &j.Owner, &j.Prompt, &j.Backends, &j.Priority, &status, &j.Error,
		&j.CreatedAt, &j.StartedAt, &j.CompletedAt, &results); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	j.Status = model.JobStatus(status)
	if len(results) > 0 {
		if err := json.Unmarshal(results, &j.Results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
	}
	return &j, nil
}
