package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/bandit"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
	red "github.com/Anshuman-Jagani/Neurocanvas/internal/infra/redis"
)

type jobSubmitRequest struct {
	UserID   string         `json:"user_id"`
	Prompt   string         `json:"prompt"`
	Backends []string       `json:"backends"`
	Priority int            `json:"priority"`
	Params   map[string]any `json:"params"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req jobSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// The queue validates nothing; the API boundary owns input checks.
	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}
	for _, name := range req.Backends {
		if !s.knownBackend(name) {
			http.Error(w, "unknown backend: "+name, http.StatusBadRequest)
			return
		}
	}

	id, err := s.queue.Enqueue(req.UserID, req.Prompt, req.Backends, req.Priority, req.Params)
	if err != nil {
		if errors.Is(err, domain.ErrQueueStopped) {
			http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
		} else {
			http.Error(w, "Failed to enqueue job", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(struct {
		JobID string `json:"job_id"`
	}{JobID: id})
}

func (s *Server) jobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, pos, err := s.queue.Status(id)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		JobID         string          `json:"job_id"`
		Status        model.JobStatus `json:"status"`
		Progress      int             `json:"progress"`
		QueuePosition int             `json:"queue_position,omitempty"`
		Error         string          `json:"error,omitempty"`
	}{
		JobID:         job.ID,
		Status:        job.Status,
		Progress:      job.Progress,
		QueuePosition: pos,
		Error:         job.Error,
	})
}

func (s *Server) jobResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.queue.Result(id)
	if err != nil && s.archive != nil {
		// Evicted from the bounded completed cache; fall back to the
		// postgres mirror.
		if archived, aerr := s.archive.FindByID(r.Context(), repository.NoTX, id); aerr == nil {
			job, err = *archived, nil
		}
	}
	if err != nil {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		JobID   string                   `json:"job_id"`
		Status  model.JobStatus          `json:"status"`
		Results []model.GenerationResult `json:"results"`
		Error   string                   `json:"error,omitempty"`
	}{
		JobID:   job.ID,
		Status:  job.Status,
		Results: job.Results,
		Error:   job.Error,
	})
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, _, err := s.queue.Status(id); err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if !s.queue.Cancel(id) {
		// Exists but not pending: already processing or terminal.
		http.Error(w, domain.ErrJobNotCancellable.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		JobID     string `json:"job_id"`
		Cancelled bool   `json:"cancelled"`
	}{JobID: id, Cancelled: true})
}

type feedbackRequest struct {
	UserID  string             `json:"user_id"`
	Backend string             `json:"backend"`
	Action  string             `json:"action"`
	Rating  int                `json:"rating"`
	Tags    model.FeedbackTags `json:"tags"`
}

func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(r.Context(), red.UserActionKey(req.UserID, "feedback"), s.rateLimit, s.rateWin)
		if err == nil && !ok {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	fb := model.Feedback{
		UserID:  req.UserID,
		Backend: req.Backend,
		Action:  model.FeedbackAction(req.Action),
		Rating:  req.Rating,
		Tags:    req.Tags,
	}
	if err := s.prefUC.SubmitFeedback(r.Context(), fb); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRating),
			errors.Is(err, domain.ErrInvalidReward),
			errors.Is(err, domain.ErrInvalidArgument),
			errors.Is(err, domain.ErrUnknownBackend):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrLockNotAcquired):
			http.Error(w, "try again", http.StatusConflict)
		default:
			http.Error(w, "Failed to record feedback", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Accepted bool `json:"accepted"`
	}{Accepted: true})
}

func (s *Server) jobHistory(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "id")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	jobs, err := s.archive.ListByOwner(r.Context(), repository.NoTX, owner, limit)
	if err != nil {
		http.Error(w, "Failed to load job history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Jobs []*model.Job `json:"jobs"`
	}{Jobs: jobs})
}

func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	rec, err := s.prefUC.Recommendations(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to load recommendations", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) selectBackend(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	algorithm := bandit.Algorithm(r.URL.Query().Get("algorithm"))

	sel, err := s.prefUC.SelectBackend(r.Context(), userID, algorithm)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAlgorithm) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to select backend", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sel)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		QueueDepth int                   `json:"queue_depth"`
		Backends   []*model.BackendStats `json:"backends"`
	}{
		QueueDepth: s.queue.Depth(),
		Backends:   s.orchUC.Stats(),
	})
}

func (s *Server) mintSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || req.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *Server) knownBackend(name string) bool {
	for _, b := range s.backends {
		if b == name {
			return true
		}
	}
	return false
}
