package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/bandit"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/logging"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/metrics"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/redis"
)

// Compile-time check
var _ PreferenceUseCase = (*preferenceUC)(nil)

// PreferenceUseCase is the feedback boundary and per-user bandit driver.
// All state mutation happens as read-modify-write under a per-user
// distributed lock so concurrent feedback never loses updates.
type PreferenceUseCase interface {
	SelectBackend(ctx context.Context, userID string, algorithm bandit.Algorithm) (bandit.Selection, error)
	SubmitFeedback(ctx context.Context, fb model.Feedback) error
	RecordGeneration(ctx context.Context, userID string) error
	Recommendations(ctx context.Context, userID string) (model.Recommendations, error)
}

const prefLockTTL = 5 * time.Second

type preferenceUC struct {
	prefs    repository.PreferenceRepository
	txm      repository.TransactionManager
	locker   redis.Locker
	selector *bandit.Selector
	log      zerolog.Logger
}

func NewPreferenceUseCase(prefs repository.PreferenceRepository, txm repository.TransactionManager, locker redis.Locker, selector *bandit.Selector, logger *zerolog.Logger) *preferenceUC {
	return &preferenceUC{
		prefs:    prefs,
		txm:      txm,
		locker:   locker,
		selector: selector,
		log:      logger.With().Str("component", "preference").Logger(),
	}
}

func (p *preferenceUC) SelectBackend(ctx context.Context, userID string, algorithm bandit.Algorithm) (bandit.Selection, error) {
	state, err := p.prefs.Load(ctx, repository.NoTX, userID)
	if err != nil {
		return bandit.Selection{}, fmt.Errorf("load preferences: %w", err)
	}
	sel, err := p.selector.Select(state, algorithm)
	if err != nil {
		return bandit.Selection{}, err
	}
	metrics.IncSelection(string(sel.Algorithm), sel.Arm, sel.Exploring)
	return sel, nil
}

func (p *preferenceUC) SubmitFeedback(ctx context.Context, fb model.Feedback) error {
	defer logging.TraceDuration(&p.log, "PreferenceUC.SubmitFeedback")()

	// Validate everything before touching state.
	reward, err := fb.Reward()
	if err != nil {
		return err
	}
	if !p.knownArm(fb.Backend) {
		return domain.ErrUnknownBackend
	}

	err = p.withUserLock(ctx, fb.UserID, func() error {
		return p.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			state, err := p.prefs.Load(ctx, tx, fb.UserID)
			if err != nil {
				return fmt.Errorf("load preferences: %w", err)
			}
			if err := p.selector.Update(state, fb.Backend, reward, fb.Tags); err != nil {
				return err
			}
			return p.prefs.Save(ctx, tx, state)
		})
	})
	if err != nil {
		return err
	}
	metrics.IncFeedback(string(fb.Action), fb.Backend)
	return nil
}

func (p *preferenceUC) RecordGeneration(ctx context.Context, userID string) error {
	return p.withUserLock(ctx, userID, func() error {
		return p.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			state, err := p.prefs.Load(ctx, tx, userID)
			if err != nil {
				return fmt.Errorf("load preferences: %w", err)
			}
			p.selector.RecordGeneration(state)
			return p.prefs.Save(ctx, tx, state)
		})
	})
}

func (p *preferenceUC) Recommendations(ctx context.Context, userID string) (model.Recommendations, error) {
	state, err := p.prefs.Load(ctx, repository.NoTX, userID)
	if err != nil {
		return model.Recommendations{}, fmt.Errorf("load preferences: %w", err)
	}
	return p.selector.Recommendations(state), nil
}

func (p *preferenceUC) withUserLock(ctx context.Context, userID string, fn func() error) error {
	key := "pref:lock:" + userID
	token, err := p.locker.TryLock(ctx, key, prefLockTTL)
	if err != nil {
		return domain.ErrLockNotAcquired
	}
	defer func() {
		if err := p.locker.Unlock(ctx, key, token); err != nil {
			p.log.Warn().Str("user_id", userID).Err(err).Msg("unlock failed")
		}
	}()
	return fn()
}

func (p *preferenceUC) knownArm(backend string) bool {
	for _, arm := range p.selector.Config().Arms {
		if arm == backend {
			return true
		}
	}
	return false
}
