package web_test

import (
	"context"
	"sync"
	"time"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/bandit"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/prompt"
)

// ---- In-memory queue ----

type memQueue struct {
	mu      sync.Mutex
	jobs    map[string]*model.Job
	order   []string
	nextID  int
	stopped bool
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: map[string]*model.Job{}}
}

func (q *memQueue) Enqueue(owner, prompt string, backends []string, priority int, params map[string]any) (string, error) {
	if q.stopped {
		return "", domain.ErrQueueStopped
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	id := string(rune('A' + q.nextID - 1))
	q.jobs[id] = &model.Job{ID: id, Owner: owner, Prompt: prompt, Backends: backends,
		Priority: priority, Status: model.JobStatusPending, CreatedAt: time.Now()}
	q.order = append(q.order, id)
	return id, nil
}

func (q *memQueue) Status(id string) (model.Job, int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return model.Job{}, 0, domain.ErrNotFound
	}
	pos := 0
	if j.Status == model.JobStatusPending {
		for i, oid := range q.order {
			if oid == id {
				pos = i + 1
			}
		}
	}
	return *j, pos, nil
}

func (q *memQueue) Result(id string) (model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok || !j.Status.Terminal() {
		return model.Job{}, domain.ErrNotFound
	}
	return *j, nil
}

func (q *memQueue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok || j.Status != model.JobStatusPending {
		return false
	}
	j.Status = model.JobStatusCancelled
	return true
}

func (q *memQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, j := range q.jobs {
		if j.Status == model.JobStatusPending {
			n++
		}
	}
	return n
}

func (q *memQueue) setStatus(id string, st model.JobStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j, ok := q.jobs[id]; ok {
		j.Status = st
	}
}

// ---- Job archive fake ----

type fakeArchive struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{jobs: map[string]*model.Job{}}
}

func (a *fakeArchive) put(job *model.Job) {
	a.mu.Lock()
	a.jobs[job.ID] = job
	a.mu.Unlock()
}

func (a *fakeArchive) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if j, ok := a.jobs[id]; ok {
		return j, nil
	}
	return nil, domain.ErrNotFound
}

func (a *fakeArchive) ListByOwner(ctx context.Context, tx repository.Tx, owner string, limit int) ([]*model.Job, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*model.Job
	for _, j := range a.jobs {
		if j.Owner == owner {
			out = append(out, j)
		}
	}
	return out, nil
}

// ---- Preference use case fake ----

type fakePrefUC struct {
	feedbackErr error
	selection   bandit.Selection
	selectErr   error
	recs        model.Recommendations

	mu       sync.Mutex
	received []model.Feedback
}

func (f *fakePrefUC) SelectBackend(ctx context.Context, userID string, algorithm bandit.Algorithm) (bandit.Selection, error) {
	if f.selectErr != nil {
		return bandit.Selection{}, f.selectErr
	}
	return f.selection, nil
}

func (f *fakePrefUC) SubmitFeedback(ctx context.Context, fb model.Feedback) error {
	if f.feedbackErr != nil {
		return f.feedbackErr
	}
	f.mu.Lock()
	f.received = append(f.received, fb)
	f.mu.Unlock()
	return nil
}

func (f *fakePrefUC) RecordGeneration(ctx context.Context, userID string) error { return nil }

func (f *fakePrefUC) Recommendations(ctx context.Context, userID string) (model.Recommendations, error) {
	recs := f.recs
	recs.UserID = userID
	return recs, nil
}

// ---- Orchestrator fake ----

type fakeOrchUC struct {
	stats []*model.BackendStats
}

func (f *fakeOrchUC) SelectBackends(features prompt.Features) []string { return nil }

func (f *fakeOrchUC) Execute(ctx context.Context, job *model.Job) error { return nil }

func (f *fakeOrchUC) RankResults(results []model.GenerationResult) []model.GenerationResult {
	return results
}

func (f *fakeOrchUC) Stats() []*model.BackendStats { return f.stats }

// ---- Rate limiter fake ----

type fakeLimiter struct {
	allow bool
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return f.allow, nil
}
