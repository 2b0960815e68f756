package bandit

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
)

type Algorithm string

const (
	AlgorithmEpsilonGreedy Algorithm = "epsilon-greedy"
	AlgorithmUCB           Algorithm = "ucb"
	AlgorithmThompson      Algorithm = "thompson-sampling"
)

// Config fixes the arm universe and the exploration schedule.
type Config struct {
	Arms           []string
	DefaultArm     string
	InitialEpsilon float64
	MinEpsilon     float64
	DecayRate      float64
}

func (c *Config) applyDefaults() {
	if c.InitialEpsilon == 0 {
		c.InitialEpsilon = 0.2
	}
	if c.MinEpsilon == 0 {
		c.MinEpsilon = 0.05
	}
	if c.DecayRate == 0 {
		c.DecayRate = 0.01
	}
	if c.DefaultArm == "" && len(c.Arms) > 0 {
		c.DefaultArm = c.Arms[0]
	}
}

// Selection is one arm choice with its provenance.
type Selection struct {
	Arm        string    `json:"arm"`
	Algorithm  Algorithm `json:"algorithm"`
	Exploring  bool      `json:"exploring"`
	Confidence float64   `json:"confidence"`
}

// Selector runs the per-user arm-selection algorithms over preference
// states the caller loads and saves. It owns no user state itself, only
// the arm universe and a seeded RNG, so one instance serves all users.
type Selector struct {
	cfg Config
	log zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSelector(cfg Config, logger *zerolog.Logger) *Selector {
	cfg.applyDefaults()
	return &Selector{
		cfg: cfg,
		log: logger.With().Str("component", "bandit").Logger(),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Selector) Config() Config { return s.cfg }

// NewState builds the default profile for a first-seen user.
func (s *Selector) NewState(userID string) *model.UserPreferenceState {
	return model.NewUserPreferenceState(userID, s.cfg.Arms, s.cfg.InitialEpsilon)
}

// Select dispatches on the algorithm name. Unknown names are rejected so
// a typo in a request can't silently fall back to a different strategy.
func (s *Selector) Select(state *model.UserPreferenceState, algorithm Algorithm) (Selection, error) {
	switch algorithm {
	case AlgorithmEpsilonGreedy, "":
		return s.EpsilonGreedy(state), nil
	case AlgorithmUCB:
		return s.UCB(state), nil
	case AlgorithmThompson:
		return s.ThompsonSampling(state), nil
	default:
		return Selection{}, domain.ErrUnknownAlgorithm
	}
}

// EpsilonGreedy explores a uniformly random arm with probability epsilon,
// otherwise exploits the highest-scoring arm. Ties keep the first arm in
// the configured order, which also serves unseen users deterministically.
// The state's epsilon can be overridden per call (e.g. to force pure
// exploitation with 0); Confidence reflects the rate actually used.
func (s *Selector) EpsilonGreedy(state *model.UserPreferenceState, epsilonOverride ...float64) Selection {
	eps := state.Epsilon
	if len(epsilonOverride) > 0 {
		eps = epsilonOverride[0]
	}
	sel := Selection{Algorithm: AlgorithmEpsilonGreedy, Confidence: 1 - eps}

	s.mu.Lock()
	explore := s.rng.Float64() < eps
	var pick int
	if explore {
		pick = s.rng.Intn(len(s.cfg.Arms))
	}
	s.mu.Unlock()

	if explore {
		sel.Arm = s.cfg.Arms[pick]
		sel.Exploring = true
		return sel
	}

	best := s.cfg.DefaultArm
	bestScore := math.Inf(-1)
	for _, arm := range s.cfg.Arms {
		score := 0.0
		if a, ok := state.Arms[arm]; ok {
			score = a.Score
		}
		if score > bestScore {
			best, bestScore = arm, score
		}
	}
	sel.Arm = best
	return sel
}

// UCB picks the arm maximizing score + sqrt(2 ln T / pulls), where T is
// the user's completed-generation count (at least 1). Unpulled arms get
// an infinite bonus, so every arm is tried before any is re-exploited.
func (s *Selector) UCB(state *model.UserPreferenceState) Selection {
	t := float64(state.TotalGenerations)
	if t < 1 {
		t = 1
	}

	best := s.cfg.DefaultArm
	bestValue := math.Inf(-1)
	exploring := false
	for _, arm := range s.cfg.Arms {
		var value float64
		a, ok := state.Arms[arm]
		if !ok || a.Pulls == 0 {
			value = math.Inf(1)
		} else {
			value = a.Score + math.Sqrt(2*math.Log(t)/float64(a.Pulls))
		}
		if value > bestValue {
			best, bestValue = arm, value
			exploring = math.IsInf(value, 1)
		}
	}
	return Selection{Arm: best, Algorithm: AlgorithmUCB, Exploring: exploring, Confidence: 1}
}

// ThompsonSampling draws each arm's plausible win rate from
// Beta(wins+1, losses+1) and picks the best draw. Unpulled arms sample
// the uniform prior, so cold starts explore naturally.
func (s *Selector) ThompsonSampling(state *model.UserPreferenceState) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	best := s.cfg.DefaultArm
	bestDraw := math.Inf(-1)
	for _, arm := range s.cfg.Arms {
		wins, losses := 0, 0
		if a, ok := state.Arms[arm]; ok {
			wins, losses = a.Wins, a.Losses
		}
		draw := sampleBeta(s.rng, float64(wins+1), float64(losses+1))
		if draw > bestDraw {
			best, bestDraw = arm, draw
		}
	}
	return Selection{Arm: best, Algorithm: AlgorithmThompson, Confidence: bestDraw}
}

// Update validates and folds one reward into the user's state. Nothing is
// mutated when the reward is out of range.
func (s *Selector) Update(state *model.UserPreferenceState, backend string, reward float64, tags model.FeedbackTags) error {
	if reward < -1 || reward > 1 || math.IsNaN(reward) {
		return domain.ErrInvalidReward
	}
	state.ApplyFeedback(backend, reward, tags.Canonical())
	// Re-derive epsilon from the current generation count so a stale
	// persisted rate is refreshed on the next write.
	state.DecayEpsilon(s.cfg.InitialEpsilon, s.cfg.MinEpsilon, s.cfg.DecayRate)
	s.log.Debug().
		Str("user_id", state.UserID).
		Str("backend", backend).
		Float64("reward", reward).
		Msg("feedback applied")
	return nil
}

// RecordGeneration counts one completed job and re-decays epsilon. Called
// once per job, regardless of how many backends it ran.
func (s *Selector) RecordGeneration(state *model.UserPreferenceState) {
	state.RecordGeneration()
	state.DecayEpsilon(s.cfg.InitialEpsilon, s.cfg.MinEpsilon, s.cfg.DecayRate)
}

// Recommendations summarizes the state: the best pulled arm (default arm
// for fresh users) and the top three entries of each taste category.
func (s *Selector) Recommendations(state *model.UserPreferenceState) model.Recommendations {
	preferred := state.BestArm(s.cfg.Arms)
	if preferred == "" {
		preferred = s.cfg.DefaultArm
	}
	return model.Recommendations{
		UserID:           state.UserID,
		PreferredBackend: preferred,
		TopStyles:        topCategories(state.Styles, 3),
		TopColors:        topCategories(state.Colors, 3),
		TopMoods:         topCategories(state.Moods, 3),
		Epsilon:          state.Epsilon,
		TotalFeedback:    state.TotalFeedback,
		TotalGenerations: state.TotalGenerations,
	}
}

func topCategories(scores map[string]float64, n int) []model.CategoryScore {
	out := make([]model.CategoryScore, 0, len(scores))
	for name, score := range scores {
		out = append(out, model.CategoryScore{Name: name, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
