package model

import (
	"time"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
)

type FeedbackAction string

const (
	ActionRate       FeedbackAction = "rate"
	ActionLike       FeedbackAction = "like"
	ActionUnlike     FeedbackAction = "unlike"
	ActionFavorite   FeedbackAction = "favorite"
	ActionUnfavorite FeedbackAction = "unfavorite"
	ActionShare      FeedbackAction = "share"
	ActionDownload   FeedbackAction = "download"
)

// FeedbackTags are the optional categorical dimensions of one feedback
// event. Canonicalize before applying to a preference state.
type FeedbackTags struct {
	Style string `json:"style,omitempty"`
	Color string `json:"color,omitempty"`
	Mood  string `json:"mood,omitempty"`
}

// Canonical returns the tags mapped into the known vocabularies.
func (t FeedbackTags) Canonical() FeedbackTags {
	return FeedbackTags{
		Style: CanonicalStyle(t.Style),
		Color: CanonicalColor(t.Color),
		Mood:  CanonicalMood(t.Mood),
	}
}

// Feedback is one user signal about a generated image. Rating is only
// meaningful for ActionRate.
type Feedback struct {
	UserID    string         `json:"user_id"`
	Backend   string         `json:"backend"`
	Action    FeedbackAction `json:"action"`
	Rating    int            `json:"rating,omitempty"`
	Tags      FeedbackTags   `json:"tags"`
	CreatedAt time.Time      `json:"created_at"`
}

// Reward maps the action onto the canonical [-1, 1] reward scale. A
// 3-star rating maps to exactly 0 (a pull with neither win nor loss).
func (f Feedback) Reward() (float64, error) {
	switch f.Action {
	case ActionRate:
		if f.Rating < 1 || f.Rating > 5 {
			return 0, domain.ErrInvalidRating
		}
		return float64(f.Rating-3) / 2, nil
	case ActionLike:
		return 0.5, nil
	case ActionUnlike:
		return -0.5, nil
	case ActionFavorite:
		return 1.0, nil
	case ActionUnfavorite:
		return -1.0, nil
	case ActionShare:
		return 0.8, nil
	case ActionDownload:
		return 0.6, nil
	default:
		return 0, domain.ErrInvalidArgument
	}
}
