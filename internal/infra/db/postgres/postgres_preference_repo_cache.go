package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/metrics"
	red "github.com/Anshuman-Jagani/Neurocanvas/internal/infra/redis"
)

var _ repository.PreferenceRepository = (*preferenceRepoCacheDecorator)(nil)

type preferenceRepoCacheDecorator struct {
	inner repository.PreferenceRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPreferenceRepoCacheDecorator(inner repository.PreferenceRepository, cache red.RedisClient, ttl time.Duration) repository.PreferenceRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &preferenceRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func prefKey(userID string) string { return fmt.Sprintf("pref:state:%s", userID) }

// Save invalidates before writing through so a concurrent Load can't
// repopulate the cache with the stale row.
func (d *preferenceRepoCacheDecorator) Save(ctx context.Context, qx repository.Tx, state *model.UserPreferenceState) error {
	_ = d.cache.Del(ctx, prefKey(state.UserID))
	return d.inner.Save(ctx, qx, state)
}

func (d *preferenceRepoCacheDecorator) Load(ctx context.Context, qx repository.Tx, userID string) (*model.UserPreferenceState, error) {
	key := prefKey(userID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("preference", "hit")
		var state model.UserPreferenceState
		if json.Unmarshal([]byte(val), &state) == nil {
			return &state, nil
		}
	}

	metrics.IncCacheRequest("preference", "miss")
	state, err := d.inner.Load(ctx, qx, userID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		bytes, _ := json.Marshal(state)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return state, nil
}
