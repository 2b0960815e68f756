package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether a job in this status can never change again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// GenerationResult is one backend's output for a job. Entries with a
// non-empty Error field mark a backend-level failure; the remaining
// fields are only meaningful on success. Immutable once attached to a Job.
type GenerationResult struct {
	Backend        string            `json:"backend"`
	OutputRef      string            `json:"output_ref,omitempty"`
	Score          float64           `json:"score"`
	Error          string            `json:"error,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	DurationMillis int64             `json:"duration_ms"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// Failed reports whether this entry carries a backend failure or no output.
func (r GenerationResult) Failed() bool {
	return r.Error != "" || r.OutputRef == ""
}

type Job struct {
	ID          string             `json:"id"`
	Owner       string             `json:"owner"`
	Prompt      string             `json:"prompt"`
	Backends    []string           `json:"backends"`
	Priority    int                `json:"priority"`
	Params      map[string]any     `json:"params,omitempty"`
	Status      JobStatus          `json:"status"`
	Progress    int                `json:"progress"`
	CreatedAt   time.Time          `json:"created_at"`
	StartedAt   time.Time          `json:"started_at,omitempty"`
	CompletedAt time.Time          `json:"completed_at,omitempty"`
	Results     []GenerationResult `json:"results,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Snapshot returns a copy safe to hand to event subscribers while the
// worker keeps mutating the original.
func (j *Job) Snapshot() Job {
	cp := *j
	if j.Backends != nil {
		cp.Backends = append([]string(nil), j.Backends...)
	}
	if j.Results != nil {
		cp.Results = append([]GenerationResult(nil), j.Results...)
	}
	if j.Params != nil {
		cp.Params = make(map[string]any, len(j.Params))
		for k, v := range j.Params {
			cp.Params[k] = v
		}
	}
	return cp
}

// Duration is wall time from start to completion; zero until terminal.
func (j *Job) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.CompletedAt.IsZero() {
		return 0
	}
	return j.CompletedAt.Sub(j.StartedAt)
}
