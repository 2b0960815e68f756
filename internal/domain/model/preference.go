package model

import (
	"math"
	"time"
)

// ArmStatistics tracks the running outcome of one generation backend for
// one user. Score is an exact incremental mean of all rewards, so the
// full reward history never needs to be stored.
type ArmStatistics struct {
	Score  float64 `json:"score"`
	Pulls  int     `json:"pulls"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
}

// Update folds one reward into the running mean. Rewards of exactly zero
// count as a pull but as neither a win nor a loss.
func (a *ArmStatistics) Update(reward float64) {
	a.Pulls++
	a.Score += (reward - a.Score) / float64(a.Pulls)
	switch {
	case reward > 0:
		a.Wins++
	case reward < 0:
		a.Losses++
	}
}

// UserPreferenceState is the full learned profile for one user: one arm
// per backend plus categorical taste accumulators. It is a plain value
// with no internal locking; callers serialize access (the use case holds
// a per-user lock across load-update-save).
type UserPreferenceState struct {
	UserID           string                    `json:"user_id"`
	Arms             map[string]*ArmStatistics `json:"arms"`
	Styles           map[string]float64        `json:"styles"`
	Colors           map[string]float64        `json:"colors"`
	Moods            map[string]float64        `json:"moods"`
	Epsilon          float64                   `json:"epsilon"`
	TotalGenerations int                       `json:"total_generations"`
	TotalFeedback    int                       `json:"total_feedback"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// NewUserPreferenceState builds the default profile a user starts with:
// one empty arm per known backend and the initial exploration rate.
func NewUserPreferenceState(userID string, arms []string, initialEpsilon float64) *UserPreferenceState {
	s := &UserPreferenceState{
		UserID:  userID,
		Arms:    make(map[string]*ArmStatistics, len(arms)),
		Styles:  make(map[string]float64),
		Colors:  make(map[string]float64),
		Moods:   make(map[string]float64),
		Epsilon: initialEpsilon,
	}
	for _, arm := range arms {
		s.Arms[arm] = &ArmStatistics{}
	}
	return s
}

// Arm returns the statistics for a backend, creating an empty entry the
// first time an unknown backend is touched.
func (s *UserPreferenceState) Arm(backend string) *ArmStatistics {
	a, ok := s.Arms[backend]
	if !ok {
		a = &ArmStatistics{}
		s.Arms[backend] = a
	}
	return a
}

// ApplyFeedback folds one validated reward into the backend's arm and the
// categorical accumulators. Tags must already be canonicalized.
func (s *UserPreferenceState) ApplyFeedback(backend string, reward float64, tags FeedbackTags) {
	s.Arm(backend).Update(reward)
	if tags.Style != "" {
		s.Styles[tags.Style] += reward
	}
	if tags.Color != "" {
		s.Colors[tags.Color] += reward
	}
	if tags.Mood != "" {
		s.Moods[tags.Mood] += reward
	}
	s.TotalFeedback++
	s.UpdatedAt = time.Now()
}

// RecordGeneration bumps the completed-generation counter. Epsilon decay
// is driven off this counter, not off feedback volume.
func (s *UserPreferenceState) RecordGeneration() {
	s.TotalGenerations++
	s.UpdatedAt = time.Now()
}

// DecayEpsilon recomputes the exploration rate from the generation count.
// The decay is exponential and floored, never below minEpsilon.
func (s *UserPreferenceState) DecayEpsilon(initial, min, rate float64) {
	s.Epsilon = math.Max(min, initial*math.Exp(-rate*float64(s.TotalGenerations)))
}

// BestArm returns the highest-scoring backend among those with at least
// one pull, or "" when the user has no history yet. Ties keep the
// first-seen arm in the supplied order.
func (s *UserPreferenceState) BestArm(order []string) string {
	best := ""
	bestScore := math.Inf(-1)
	for _, arm := range order {
		a, ok := s.Arms[arm]
		if !ok || a.Pulls == 0 {
			continue
		}
		if a.Score > bestScore {
			best = arm
			bestScore = a.Score
		}
	}
	return best
}
