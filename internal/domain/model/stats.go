package model

import "time"

// BackendStats is the cross-user running quality record for one backend.
// AvgScore and AvgMillis are exact incremental means over all completed
// generations on any user's behalf.
type BackendStats struct {
	Backend     string    `json:"backend"`
	Generations int       `json:"generations"`
	AvgScore    float64   `json:"avg_score"`
	AvgMillis   float64   `json:"avg_millis"`
	Failures    int       `json:"failures"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Record folds one completed generation into the running averages.
func (b *BackendStats) Record(score float64, millis int64) {
	b.Generations++
	n := float64(b.Generations)
	b.AvgScore += (score - b.AvgScore) / n
	b.AvgMillis += (float64(millis) - b.AvgMillis) / n
	b.UpdatedAt = time.Now()
}

// CategoryScore is one entry of a per-category recommendation list.
type CategoryScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Recommendations summarizes what the platform has learned about a user.
type Recommendations struct {
	UserID           string          `json:"user_id"`
	PreferredBackend string          `json:"preferred_backend"`
	TopStyles        []CategoryScore `json:"top_styles"`
	TopColors        []CategoryScore `json:"top_colors"`
	TopMoods         []CategoryScore `json:"top_moods"`
	Epsilon          float64         `json:"epsilon"`
	TotalFeedback    int             `json:"total_feedback"`
	TotalGenerations int             `json:"total_generations"`
}
