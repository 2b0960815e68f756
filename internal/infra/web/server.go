package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/config"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/usecase"
)

// JobQueue is the slice of the worker queue the API needs.
type JobQueue interface {
	Enqueue(owner, prompt string, backends []string, priority int, params map[string]any) (string, error)
	Status(id string) (model.Job, int, error)
	Result(id string) (model.Job, error)
	Cancel(id string) bool
	Depth() int
}

// RateLimiter matches redis.RateLimiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// JobArchive is the postgres mirror of terminal jobs. It backs result
// lookups for jobs already evicted from the queue's bounded cache, and
// the per-user history listing.
type JobArchive interface {
	FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error)
	ListByOwner(ctx context.Context, tx repository.Tx, owner string, limit int) ([]*model.Job, error)
}

type Server struct {
	queue     JobQueue
	archive   JobArchive
	prefUC    usecase.PreferenceUseCase
	orchUC    usecase.OrchestratorUseCase
	backends  []string
	auth      *AuthManager
	limiter   RateLimiter
	apiKey    string
	rateLimit int
	rateWin   time.Duration
	log       *zerolog.Logger

	http *http.Server
}

func NewServer(
	cfg config.WebConfig,
	dev bool,
	queue JobQueue,
	archive JobArchive,
	prefUC usecase.PreferenceUseCase,
	orchUC usecase.OrchestratorUseCase,
	backends []string,
	limiter RateLimiter,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "web").Logger()
	s := &Server{
		queue:     queue,
		archive:   archive,
		prefUC:    prefUC,
		orchUC:    orchUC,
		backends:  backends,
		auth:      NewAuthManager(cfg.JWTSecret, !dev, "", cfg.SessionTTL),
		limiter:   limiter,
		apiKey:    cfg.APIKey,
		rateLimit: cfg.FeedbackRate,
		rateWin:   cfg.RateWindow,
		log:       &webLog,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi mux. Exposed separately so tests can drive the
// handlers through httptest without binding a port.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/jobs", s.submitJob)
		r.Get("/jobs/{id}", s.jobStatus)
		r.Get("/jobs/{id}/result", s.jobResult)
		r.Delete("/jobs/{id}", s.cancelJob)

		r.Post("/feedback", s.submitFeedback)
		r.Get("/users/{id}/recommendations", s.recommendations)
		r.Get("/users/{id}/jobs", s.jobHistory)
		r.Get("/backends/select", s.selectBackend)

		r.Post("/auth/session", s.mintSession)
		r.With(s.requireSession).Get("/stats", s.stats)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func (s *Server) Run() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requireSession guards admin endpoints with the JWT session.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
