package repository

import (
	"context"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
)

// PreferenceRepository stores per-user bandit state. Load never returns
// ErrNotFound: a user with no row gets a freshly synthesized default
// profile (the implementation is constructed with the default builder).
type PreferenceRepository interface {
	Load(ctx context.Context, tx Tx, userID string) (*model.UserPreferenceState, error)
	Save(ctx context.Context, tx Tx, state *model.UserPreferenceState) error
}
