package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
)

var _ repository.BackendStatsRepository = (*PostgresBackendStatsRepo)(nil)

type PostgresBackendStatsRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresBackendStatsRepo(pool *pgxpool.Pool) *PostgresBackendStatsRepo {
	return &PostgresBackendStatsRepo{pool: pool}
}

func (r *PostgresBackendStatsRepo) Upsert(ctx context.Context, qx repository.Tx, stats *model.BackendStats) error {
	const q = `
INSERT INTO backend_stats (backend, generations, avg_score, avg_millis, failures, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (backend) DO UPDATE SET
  generations=$2, avg_score=$3, avg_millis=$4, failures=$5, updated_at=$6;
`
	return execSQL(ctx, r.pool, qx, q,
		stats.Backend, stats.Generations, stats.AvgScore, stats.AvgMillis, stats.Failures, stats.UpdatedAt)
}

func (r *PostgresBackendStatsRepo) FindAll(ctx context.Context, qx repository.Tx) ([]*model.BackendStats, error) {
	const q = `
SELECT backend, generations, avg_score, avg_millis, failures, updated_at
  FROM backend_stats ORDER BY backend;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.BackendStats
	for rows.Next() {
		var s model.BackendStats
		if err := rows.Scan(&s.Backend, &s.Generations, &s.AvgScore, &s.AvgMillis, &s.Failures, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
