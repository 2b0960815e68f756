package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/metrics"
)

// Executor runs the generation pipeline for one job. The queue owns job
// lifecycle; the executor owns everything between Started and terminal.
type Executor interface {
	Execute(ctx context.Context, job *model.Job) error
}

// Queue is the serial generation scheduler: a priority-ordered pending
// list drained by a single worker goroutine, so exactly one job is
// processing at any instant. Terminal jobs land in a bounded cache.
type Queue struct {
	exec Executor
	pool *Pool
	log  zerolog.Logger

	completedCap int

	mu          sync.Mutex
	ctx         context.Context
	started     bool
	running     bool
	pending     []*model.Job
	current     *model.Job
	completed   []*model.Job // oldest first
	subscribers []Subscriber
	wg          sync.WaitGroup
}

func NewQueue(completedCap int, exec Executor, pool *Pool, logger *zerolog.Logger) *Queue {
	if completedCap <= 0 {
		completedCap = 100
	}
	return &Queue{
		exec:         exec,
		pool:         pool,
		log:          logger.With().Str("component", "job_queue").Logger(),
		completedCap: completedCap,
	}
}

// Start arms the queue. The worker goroutine itself is lazy: it spins up
// on the first enqueue and exits when the pending list drains.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ctx = ctx
	q.started = true
	q.pool.Start(ctx)
}

// Stop waits for the in-flight job to finish, then shuts the dispatcher.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()
	q.pool.Stop()
}

// Subscribe registers an event listener. Call before Start; the slice is
// not guarded against concurrent mutation afterwards.
func (q *Queue) Subscribe(fn Subscriber) {
	q.subscribers = append(q.subscribers, fn)
}

// Enqueue inserts a job: higher priority first, FIFO among equals.
// Input validation is the caller's job; the queue only guards its own
// lifecycle. Returns the new job ID.
func (q *Queue) Enqueue(owner, prompt string, backends []string, priority int, params map[string]any) (string, error) {
	job := &model.Job{
		ID:        ulid.Make().String(),
		Owner:     owner,
		Prompt:    prompt,
		Backends:  append([]string(nil), backends...),
		Priority:  priority,
		Params:    params,
		Status:    model.JobStatusPending,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return "", domain.ErrQueueStopped
	}
	// Insert before the first strictly-lower priority entry.
	idx := len(q.pending)
	for i, p := range q.pending {
		if p.Priority < job.Priority {
			idx = i
			break
		}
	}
	q.pending = append(q.pending, nil)
	copy(q.pending[idx+1:], q.pending[idx:])
	q.pending[idx] = job

	depth := len(q.pending)
	if !q.running {
		q.running = true
		q.wg.Add(1)
		go q.run(q.ctx)
	}
	snap := job.Snapshot()
	q.mu.Unlock()

	metrics.SetQueueDepth(depth)
	q.emit(Event{Type: EventAdded, Job: snap, At: time.Now()})
	return job.ID, nil
}

// run drains the pending list. One job at a time; a job failure never
// stops the loop.
func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(q.pending) == 0 || !q.started {
			q.running = false
			q.current = nil
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending = q.pending[1:]
		job.Status = model.JobStatusProcessing
		job.StartedAt = time.Now()
		q.current = job
		depth := len(q.pending)
		started := job.Snapshot()
		q.mu.Unlock()

		metrics.SetQueueDepth(depth)
		q.emit(Event{Type: EventStarted, Job: started, At: time.Now()})

		// The executor works on a snapshot so status reads never race the
		// pipeline's mutations.
		work := job.Snapshot()
		execCtx := withProgress(ctx, func(percent int) {
			q.mu.Lock()
			job.Progress = percent
			snap := job.Snapshot()
			q.mu.Unlock()
			q.emit(Event{Type: EventProgress, Job: snap, At: time.Now()})
		})
		err := q.execute(execCtx, &work)

		q.mu.Lock()
		job.Backends = work.Backends
		job.Results = work.Results
		job.Progress = work.Progress
		job.CompletedAt = time.Now()
		var evType EventType
		if err != nil {
			job.Status = model.JobStatusFailed
			job.Error = err.Error()
			evType = EventFailed
		} else {
			job.Status = model.JobStatusCompleted
			job.Progress = 100
			evType = EventCompleted
		}
		q.retire(job)
		q.current = nil
		snap := job.Snapshot()
		q.mu.Unlock()

		metrics.IncJob(string(job.Status))
		metrics.ObserveJobDuration(snap.Duration().Seconds())
		if err != nil {
			q.log.Warn().Str("job_id", job.ID).Err(err).Msg("job failed")
		} else {
			q.log.Info().Str("job_id", job.ID).Dur("took", snap.Duration()).Msg("job completed")
		}
		q.emit(Event{Type: evType, Job: snap, At: time.Now()})
	}
}

// execute shields the loop from a panicking backend adapter.
func (q *Queue) execute(ctx context.Context, job *model.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return q.exec.Execute(ctx, job)
}

// retire appends to the completed cache, evicting the oldest entry when
// the cap is reached. Callers hold q.mu.
func (q *Queue) retire(job *model.Job) {
	if len(q.completed) >= q.completedCap {
		q.completed = q.completed[1:]
	}
	q.completed = append(q.completed, job)
}

// Status finds a job anywhere in its lifecycle. Position is the 1-based
// place in the pending list, zero otherwise.
func (q *Queue) Status(id string) (model.Job, int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current != nil && q.current.ID == id {
		return q.current.Snapshot(), 0, nil
	}
	for i, p := range q.pending {
		if p.ID == id {
			return p.Snapshot(), i + 1, nil
		}
	}
	for _, c := range q.completed {
		if c.ID == id {
			return c.Snapshot(), 0, nil
		}
	}
	return model.Job{}, 0, domain.ErrNotFound
}

// Result returns a terminal job from the completed cache.
func (q *Queue) Result(id string) (model.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range q.completed {
		if c.ID == id {
			return c.Snapshot(), nil
		}
	}
	return model.Job{}, domain.ErrNotFound
}

// Cancel removes a pending job. Processing and unknown jobs are not
// cancellable; the caller distinguishes the two via Status.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	for i, p := range q.pending {
		if p.ID != id {
			continue
		}
		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		p.Status = model.JobStatusCancelled
		p.CompletedAt = time.Now()
		q.retire(p)
		depth := len(q.pending)
		snap := p.Snapshot()
		q.mu.Unlock()

		metrics.SetQueueDepth(depth)
		metrics.IncJob(string(model.JobStatusCancelled))
		q.emit(Event{Type: EventCancelled, Job: snap, At: time.Now()})
		return true
	}
	q.mu.Unlock()
	return false
}

// Depth is the number of waiting jobs.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) emit(ev Event) {
	for _, sub := range q.subscribers {
		fn := sub
		if err := q.pool.Submit(func(context.Context) error {
			fn(ev)
			return nil
		}); err != nil {
			q.log.Warn().Str("job_id", ev.Job.ID).Str("event", string(ev.Type)).Err(err).Msg("event dropped")
		}
	}
}
