package bandit

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
)

var testArms = []string{"diffusion", "style_transfer", "gemini"}

func newTestSelector(seed int64) *Selector {
	logger := zerolog.Nop()
	s := NewSelector(Config{Arms: testArms}, &logger)
	s.rng = rand.New(rand.NewSource(seed))
	return s
}

func TestEpsilonGreedyExploitsBestArm(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")
	state.Epsilon = 0 // force pure exploitation
	state.Arm("diffusion").Update(0.2)
	state.Arm("style_transfer").Update(0.9)
	state.Arm("gemini").Update(0.5)

	sel := s.EpsilonGreedy(state)
	if sel.Arm != "style_transfer" || sel.Exploring {
		t.Fatalf("got %+v, want style_transfer exploit", sel)
	}
	if sel.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1 at epsilon 0", sel.Confidence)
	}
}

func TestEpsilonGreedyTieKeepsFirstArm(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")
	state.Epsilon = 0
	// All arms at score zero: the first configured arm must win.
	if sel := s.EpsilonGreedy(state); sel.Arm != "diffusion" {
		t.Fatalf("tie broke to %q, want diffusion", sel.Arm)
	}
}

func TestEpsilonGreedyOverrideControlsExploration(t *testing.T) {
	t.Parallel()
	s := newTestSelector(3)
	state := s.NewState("u1")
	state.Epsilon = 1 // the state alone would always explore
	state.Arm("gemini").Update(0.9)

	// Override 0 forces pure exploitation regardless of the state's rate.
	for i := 0; i < 200; i++ {
		sel := s.EpsilonGreedy(state, 0)
		if sel.Exploring || sel.Arm != "gemini" {
			t.Fatalf("override 0 explored: %+v", sel)
		}
		if sel.Confidence != 1 {
			t.Fatalf("confidence = %v, want 1 for override 0", sel.Confidence)
		}
	}

	state.Epsilon = 0
	for i := 0; i < 200; i++ {
		if sel := s.EpsilonGreedy(state, 1); !sel.Exploring {
			t.Fatalf("override 1 exploited: %+v", sel)
		}
	}
	if sel := s.EpsilonGreedy(state, 0.4); sel.Confidence != 0.6 {
		t.Fatalf("confidence = %v, want 1 - supplied rate", sel.Confidence)
	}
}

func TestEpsilonGreedyExplorationRate(t *testing.T) {
	t.Parallel()
	s := newTestSelector(42)
	state := s.NewState("u1")
	state.Epsilon = 0.3
	state.Arm("diffusion").Update(1)

	const n = 20000
	explored := 0
	for i := 0; i < n; i++ {
		if s.EpsilonGreedy(state).Exploring {
			explored++
		}
	}
	rate := float64(explored) / n
	if math.Abs(rate-0.3) > 0.02 {
		t.Fatalf("exploration rate = %v, want ~0.3", rate)
	}
}

func TestUCBPrefersUntriedArms(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")
	state.TotalGenerations = 10
	state.Arm("diffusion").Update(1)
	state.Arm("gemini").Update(1)

	sel := s.UCB(state)
	if sel.Arm != "style_transfer" {
		t.Fatalf("got %q, want the unpulled arm style_transfer", sel.Arm)
	}
	if !sel.Exploring {
		t.Fatalf("unpulled pick not flagged as exploring")
	}
}

func TestUCBBonusShrinksWithPulls(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")
	state.TotalGenerations = 100
	// Same score, very different pull counts: the rarely-pulled arm wins
	// on its larger confidence bonus.
	for i := 0; i < 50; i++ {
		state.Arm("diffusion").Update(0.5)
	}
	state.Arm("style_transfer").Update(0.5)
	state.Arm("gemini").Update(0.6) // slightly better but well-pulled
	for i := 0; i < 49; i++ {
		state.Arm("gemini").Update(0.6)
	}

	if sel := s.UCB(state); sel.Arm != "style_transfer" {
		t.Fatalf("got %q, want style_transfer (largest bonus)", sel.Arm)
	}
}

func TestUCBHandlesZeroGenerations(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")
	for _, arm := range testArms {
		state.Arm(arm).Update(0.5)
	}
	// T clamps to 1 so ln(T) = 0; must not panic or go negative-infinite.
	sel := s.UCB(state)
	if sel.Arm == "" {
		t.Fatalf("no arm selected with zero generations")
	}
}

func TestThompsonConvergesToBetterArm(t *testing.T) {
	t.Parallel()
	s := newTestSelector(7)
	state := s.NewState("u1")
	// diffusion: 90 wins / 10 losses. gemini: 10 wins / 90 losses.
	for i := 0; i < 90; i++ {
		state.Arm("diffusion").Update(1)
		state.Arm("gemini").Update(-1)
	}
	for i := 0; i < 10; i++ {
		state.Arm("diffusion").Update(-1)
		state.Arm("gemini").Update(1)
	}
	for i := 0; i < 50; i++ {
		state.Arm("style_transfer").Update(1)
		state.Arm("style_transfer").Update(-1)
	}

	wins := map[string]int{}
	const n = 5000
	for i := 0; i < n; i++ {
		wins[s.ThompsonSampling(state).Arm]++
	}
	if float64(wins["diffusion"])/n < 0.95 {
		t.Fatalf("diffusion picked %d/%d, want dominant", wins["diffusion"], n)
	}
}

func TestThompsonColdStartIsUniformish(t *testing.T) {
	t.Parallel()
	s := newTestSelector(11)
	state := s.NewState("u1")

	wins := map[string]int{}
	const n = 30000
	for i := 0; i < n; i++ {
		wins[s.ThompsonSampling(state).Arm]++
	}
	for _, arm := range testArms {
		share := float64(wins[arm]) / n
		if math.Abs(share-1.0/3) > 0.02 {
			t.Fatalf("arm %s share = %v, want ~1/3 under uniform prior", arm, share)
		}
	}
}

func TestSelectRejectsUnknownAlgorithm(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	if _, err := s.Select(s.NewState("u1"), "genetic"); !errors.Is(err, domain.ErrUnknownAlgorithm) {
		t.Fatalf("err = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestUpdateRejectsOutOfRangeReward(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")
	for _, reward := range []float64{-1.1, 1.5, math.NaN()} {
		if err := s.Update(state, "diffusion", reward, model.FeedbackTags{}); !errors.Is(err, domain.ErrInvalidReward) {
			t.Fatalf("reward %v: err = %v, want ErrInvalidReward", reward, err)
		}
	}
	if state.TotalFeedback != 0 || state.Arms["diffusion"].Pulls != 0 {
		t.Fatalf("state mutated by rejected rewards: %+v", state.Arms["diffusion"])
	}
}

func TestUpdateCanonicalizesTags(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")
	if err := s.Update(state, "diffusion", 0.5, model.FeedbackTags{Style: "vaporwave", Mood: "dramatic"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := state.Styles[model.CategoryOther]; got != 0.5 {
		t.Fatalf("unknown style accumulated under %v, want other=0.5", state.Styles)
	}
	if got := state.Moods["dramatic"]; got != 0.5 {
		t.Fatalf("mood accumulator = %v, want 0.5", got)
	}
}

func TestUpdateRefreshesStaleEpsilon(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")
	// Simulate a persisted row whose epsilon was never decayed alongside
	// its generation count.
	state.TotalGenerations = 50

	if err := s.Update(state, "diffusion", 0.5, model.FeedbackTags{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	cfg := s.Config()
	want := math.Max(cfg.MinEpsilon, cfg.InitialEpsilon*math.Exp(-cfg.DecayRate*50))
	if math.Abs(state.Epsilon-want) > 1e-9 {
		t.Fatalf("epsilon = %v, want %v after refresh", state.Epsilon, want)
	}
}

func TestRecordGenerationDecaysEpsilon(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")
	before := state.Epsilon
	s.RecordGeneration(state)
	if state.TotalGenerations != 1 {
		t.Fatalf("total generations = %d, want 1", state.TotalGenerations)
	}
	if state.Epsilon >= before {
		t.Fatalf("epsilon did not decay: %v -> %v", before, state.Epsilon)
	}
}

func TestRecommendations(t *testing.T) {
	t.Parallel()
	s := newTestSelector(1)
	state := s.NewState("u1")

	// Fresh user falls back to the default arm.
	if rec := s.Recommendations(state); rec.PreferredBackend != "diffusion" {
		t.Fatalf("fresh user preferred = %q, want default diffusion", rec.PreferredBackend)
	}

	state.Arm("gemini").Update(0.9)
	state.Styles = map[string]float64{"abstract": 2, "surreal": 1, "baroque": 0.5, "minimalist": 0.1}
	rec := s.Recommendations(state)
	if rec.PreferredBackend != "gemini" {
		t.Fatalf("preferred = %q, want gemini", rec.PreferredBackend)
	}
	if len(rec.TopStyles) != 3 || rec.TopStyles[0].Name != "abstract" {
		t.Fatalf("top styles = %+v, want abstract first, three entries", rec.TopStyles)
	}
}
