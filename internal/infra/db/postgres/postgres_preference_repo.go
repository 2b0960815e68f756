package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
)

var _ repository.PreferenceRepository = (*PostgresPreferenceRepo)(nil)

// PostgresPreferenceRepo stores each user's learned profile as one jsonb
// row. Load never misses: first-seen users get a synthesized default from
// the injected builder.
type PostgresPreferenceRepo struct {
	pool     *pgxpool.Pool
	newState func(userID string) *model.UserPreferenceState
}

func NewPostgresPreferenceRepo(pool *pgxpool.Pool, newState func(userID string) *model.UserPreferenceState) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{pool: pool, newState: newState}
}

func (r *PostgresPreferenceRepo) Load(ctx context.Context, qx repository.Tx, userID string) (*model.UserPreferenceState, error) {
	const q = `SELECT state FROM user_preferences WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, qx, q, userID)
	if err != nil {
		return nil, err
	}
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == pgx.ErrNoRows {
			return r.newState(userID), nil
		}
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	var state model.UserPreferenceState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return &state, nil
}

func (r *PostgresPreferenceRepo) Save(ctx context.Context, qx repository.Tx, state *model.UserPreferenceState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	const q = `
INSERT INTO user_preferences (user_id, state, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET state=$2, updated_at=$3;
`
	return execSQL(ctx, r.pool, qx, q, state.UserID, raw, time.Now())
}
