package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/bandit"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
)

var prefArms = []string{"diffusion", "style_transfer", "gemini"}

func newPreferenceFixture(t *testing.T) (*preferenceUC, *MockPreferenceRepo, *MockLocker) {
	t.Helper()
	selector := bandit.NewSelector(bandit.Config{Arms: prefArms}, newLogger())
	repo := NewMockPreferenceRepo(selector.NewState)
	locker := NewMockLocker()
	uc := NewPreferenceUseCase(repo, &MockTxManager{}, locker, selector, newLogger())
	return uc, repo, locker
}

func TestSubmitFeedbackFiveStars(t *testing.T) {
	t.Parallel()
	uc, repo, _ := newPreferenceFixture(t)
	ctx := context.Background()

	fb := model.Feedback{
		UserID:  "u1",
		Backend: "diffusion",
		Action:  model.ActionRate,
		Rating:  5,
		Tags:    model.FeedbackTags{Style: "surreal"},
	}
	if err := uc.SubmitFeedback(ctx, fb); err != nil {
		t.Fatalf("submit: %v", err)
	}

	state, _ := repo.Load(ctx, nil, "u1")
	arm := state.Arms["diffusion"]
	if arm.Pulls != 1 || arm.Wins != 1 || arm.Score != 1.0 {
		t.Fatalf("arm after 5-star rating = %+v", arm)
	}
	if state.Styles["surreal"] != 1.0 {
		t.Fatalf("style accumulator = %v", state.Styles)
	}
	if state.TotalFeedback != 1 {
		t.Fatalf("total feedback = %d", state.TotalFeedback)
	}
}

func TestSubmitFeedbackRejectsBeforeAnyWrite(t *testing.T) {
	t.Parallel()
	uc, repo, _ := newPreferenceFixture(t)
	ctx := context.Background()

	bad := model.Feedback{UserID: "u1", Backend: "diffusion", Action: model.ActionRate, Rating: 9}
	if err := uc.SubmitFeedback(ctx, bad); !errors.Is(err, domain.ErrInvalidRating) {
		t.Fatalf("err = %v, want ErrInvalidRating", err)
	}
	if repo.Saves != 0 {
		t.Fatalf("rejected feedback reached the store")
	}
}

func TestSubmitFeedbackUnknownBackend(t *testing.T) {
	t.Parallel()
	uc, _, _ := newPreferenceFixture(t)
	fb := model.Feedback{UserID: "u1", Backend: "imaginary", Action: model.ActionLike}
	if err := uc.SubmitFeedback(context.Background(), fb); !errors.Is(err, domain.ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestSubmitFeedbackLockContention(t *testing.T) {
	t.Parallel()
	uc, _, locker := newPreferenceFixture(t)
	locker.ErrOn["pref:lock:u1"] = domain.ErrLockNotAcquired

	fb := model.Feedback{UserID: "u1", Backend: "diffusion", Action: model.ActionLike}
	if err := uc.SubmitFeedback(context.Background(), fb); !errors.Is(err, domain.ErrLockNotAcquired) {
		t.Fatalf("err = %v, want ErrLockNotAcquired", err)
	}
}

func TestRecordGenerationDecays(t *testing.T) {
	t.Parallel()
	uc, repo, _ := newPreferenceFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := uc.RecordGeneration(ctx, "u1"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	state, _ := repo.Load(ctx, nil, "u1")
	if state.TotalGenerations != 3 {
		t.Fatalf("total generations = %d, want 3", state.TotalGenerations)
	}
	if state.Epsilon >= 0.2 {
		t.Fatalf("epsilon = %v, want decayed below 0.2", state.Epsilon)
	}
}

func TestSelectBackendForFreshUser(t *testing.T) {
	t.Parallel()
	uc, _, _ := newPreferenceFixture(t)

	sel, err := uc.SelectBackend(context.Background(), "new-user", bandit.AlgorithmUCB)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Arm == "" || !sel.Exploring {
		t.Fatalf("fresh-user UCB selection = %+v, want an exploring pick", sel)
	}
}

func TestSelectBackendUnknownAlgorithm(t *testing.T) {
	t.Parallel()
	uc, _, _ := newPreferenceFixture(t)
	if _, err := uc.SelectBackend(context.Background(), "u1", "simulated-annealing"); !errors.Is(err, domain.ErrUnknownAlgorithm) {
		t.Fatalf("err = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestRecommendationsFlow(t *testing.T) {
	t.Parallel()
	uc, _, _ := newPreferenceFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		fb := model.Feedback{UserID: "u1", Backend: "gemini", Action: model.ActionFavorite,
			Tags: model.FeedbackTags{Mood: "ethereal"}}
		if err := uc.SubmitFeedback(ctx, fb); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	rec, err := uc.Recommendations(ctx, "u1")
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if rec.PreferredBackend != "gemini" {
		t.Fatalf("preferred = %q, want gemini", rec.PreferredBackend)
	}
	if len(rec.TopMoods) == 0 || rec.TopMoods[0].Name != "ethereal" {
		t.Fatalf("top moods = %+v", rec.TopMoods)
	}
	if rec.TotalFeedback != 3 {
		t.Fatalf("total feedback = %d", rec.TotalFeedback)
	}
}
