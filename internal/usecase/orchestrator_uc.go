package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/adapter"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/logging"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/metrics"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/worker"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/prompt"
)

// Compile-time check
var _ OrchestratorUseCase = (*orchestratorUC)(nil)

// OrchestratorUseCase fans a job out to generation backends, ranks what
// came back, and keeps the cross-user backend quality record.
type OrchestratorUseCase interface {
	// SelectBackends scores each registered backend against the prompt
	// features and returns the ones above threshold, best first.
	SelectBackends(features prompt.Features) []string

	// Execute runs the full pipeline for one job: resolve backends,
	// generate with each, rank. Results land on the job; the returned
	// error is non-nil only when every backend failed.
	Execute(ctx context.Context, job *model.Job) error

	// RankResults drops failed entries and orders the rest by blended
	// speed/history score. When every entry failed the input is
	// returned unchanged so the error detail survives on the job.
	RankResults(results []model.GenerationResult) []model.GenerationResult

	// Stats snapshots the in-memory backend quality records.
	Stats() []*model.BackendStats
}

// OrchestratorConfig tunes selection and ranking. Zero values get the
// historical defaults in NewOrchestratorUseCase.
type OrchestratorConfig struct {
	DefaultBackend       string
	AlwaysIncludeDefault bool
	SelectionThreshold   float64
	SpeedWeight          float64
	HistoryWeight        float64
}

type orchestratorUC struct {
	cfg      OrchestratorConfig
	registry adapter.BackendRegistry
	analyzer *prompt.Analyzer
	log      zerolog.Logger

	mu    sync.Mutex
	stats map[string]*model.BackendStats
}

func NewOrchestratorUseCase(cfg OrchestratorConfig, registry adapter.BackendRegistry, analyzer *prompt.Analyzer, logger *zerolog.Logger) *orchestratorUC {
	if cfg.SelectionThreshold == 0 {
		cfg.SelectionThreshold = 0.5
	}
	if cfg.SpeedWeight == 0 && cfg.HistoryWeight == 0 {
		cfg.SpeedWeight, cfg.HistoryWeight = 0.4, 0.6
	}
	return &orchestratorUC{
		cfg:      cfg,
		registry: registry,
		analyzer: analyzer,
		log:      logger.With().Str("component", "orchestrator").Logger(),
		stats:    make(map[string]*model.BackendStats),
	}
}

// SeedStats primes the in-memory record from persisted rows at startup.
func (o *orchestratorUC) SeedStats(rows []*model.BackendStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, row := range rows {
		cp := *row
		o.stats[row.Backend] = &cp
	}
}

func (o *orchestratorUC) SelectBackends(features prompt.Features) []string {
	scores := map[string]float64{}

	// Style transfer wins on explicit artistic direction.
	st := 0.3
	if len(features.StyleReferences) > 0 {
		st += 0.4
	}
	if len(features.Styles) > 0 {
		st += 0.2
	}
	for _, s := range features.Styles {
		if s == "abstract" {
			st += 0.1
			break
		}
	}
	scores["style_transfer"] = st

	// Diffusion wins on descriptive, subject-heavy prompts.
	df := 0.3
	if features.Length > 50 {
		df += 0.2
	}
	if features.Length > 100 {
		df += 0.1
	}
	if len(features.Concepts) > 0 {
		df += 0.3
	}
	if features.HasLighting {
		df += 0.1
	}
	if len(features.Colors) > 0 {
		df += 0.1
	}
	if features.HasTexture {
		df += 0.1
	}
	scores["diffusion"] = df

	max := 0.0
	for _, v := range scores {
		if v > max {
			max = v
		}
	}

	registered := map[string]bool{}
	for _, name := range o.registry.Names() {
		registered[name] = true
	}

	type scored struct {
		name  string
		score float64
	}
	var picks []scored
	for name, v := range scores {
		if !registered[name] {
			continue
		}
		if max > 0 && v/max >= o.cfg.SelectionThreshold {
			picks = append(picks, scored{name, v / max})
		}
	}
	sort.Slice(picks, func(i, j int) bool {
		if picks[i].score != picks[j].score {
			return picks[i].score > picks[j].score
		}
		return picks[i].name < picks[j].name
	})

	out := make([]string, 0, len(picks)+1)
	seen := map[string]bool{}
	for _, p := range picks {
		out = append(out, p.name)
		seen[p.name] = true
	}
	if o.cfg.AlwaysIncludeDefault && o.cfg.DefaultBackend != "" &&
		registered[o.cfg.DefaultBackend] && !seen[o.cfg.DefaultBackend] {
		out = append(out, o.cfg.DefaultBackend)
	}
	return out
}

func (o *orchestratorUC) Execute(ctx context.Context, job *model.Job) error {
	defer logging.TraceDuration(&o.log, "OrchestratorUC.Execute")()

	backends := job.Backends
	if len(backends) == 0 {
		backends = o.SelectBackends(o.analyzer.Analyze(job.Prompt))
		job.Backends = backends
	}
	if len(backends) == 0 {
		return domain.ErrUnknownBackend
	}

	results := o.generate(ctx, job, backends)
	job.Results = o.RankResults(results)

	// Stats see every attempt: scored successes from the ranking, plus
	// the failures it drops.
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
			o.record(r)
		}
	}
	for _, r := range job.Results {
		if !r.Failed() {
			o.record(r)
		}
	}
	if failed == len(results) {
		return domain.ErrAllBackendsFailed
	}
	return nil
}

// generate runs the backends sequentially. A backend failure becomes a
// result entry with the Error field set; siblings always still run.
func (o *orchestratorUC) generate(ctx context.Context, job *model.Job, backends []string) []model.GenerationResult {
	results := make([]model.GenerationResult, 0, len(backends))
	for i, name := range backends {
		be, err := o.registry.Resolve(name)
		if err != nil {
			results = append(results, model.GenerationResult{
				Backend: name, Error: err.Error(), GeneratedAt: time.Now(),
			})
			continue
		}

		start := time.Now()
		res, err := be.Generate(ctx, job.Prompt, job.Params)
		elapsed := time.Since(start)
		if err != nil {
			o.log.Warn().Str("job_id", job.ID).Str("backend", name).Err(err).Msg("backend failed")
			metrics.IncGeneration(name, "error")
			results = append(results, model.GenerationResult{
				Backend:        name,
				Error:          err.Error(),
				DurationMillis: elapsed.Milliseconds(),
				GeneratedAt:    time.Now(),
			})
		} else {
			metrics.IncGeneration(name, "ok")
			metrics.ObserveGenerationSeconds(name, elapsed.Seconds())
			res.Backend = name
			res.DurationMillis = elapsed.Milliseconds()
			res.GeneratedAt = time.Now()
			results = append(results, *res)
		}
		job.Progress = (i + 1) * 100 / len(backends)
		worker.ReportProgress(ctx, job.Progress)
	}
	return results
}

func (o *orchestratorUC) RankResults(results []model.GenerationResult) []model.GenerationResult {
	var ok []model.GenerationResult
	for _, r := range results {
		if !r.Failed() {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return results
	}

	for i := range ok {
		seconds := float64(ok[i].DurationMillis) / 1000.0
		speed := 1.0 / (1.0 + seconds)
		ok[i].Score = o.cfg.SpeedWeight*speed + o.cfg.HistoryWeight*o.historicalAverage(ok[i].Backend)
	}
	sort.SliceStable(ok, func(i, j int) bool { return ok[i].Score > ok[j].Score })
	return ok
}

// historicalAverage is the cross-user mean score for a backend, 0.5 when
// no generation has been recorded yet.
func (o *orchestratorUC) historicalAverage(backend string) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.stats[backend]; ok && s.Generations > 0 {
		return s.AvgScore
	}
	return 0.5
}

func (o *orchestratorUC) record(r model.GenerationResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.stats[r.Backend]
	if !ok {
		s = &model.BackendStats{Backend: r.Backend}
		o.stats[r.Backend] = s
	}
	if r.Failed() {
		s.Failures++
		s.UpdatedAt = time.Now()
		return
	}
	s.Record(r.Score, r.DurationMillis)
	metrics.SetBackendAvgScore(r.Backend, s.AvgScore)
}

func (o *orchestratorUC) Stats() []*model.BackendStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*model.BackendStats, 0, len(o.stats))
	for _, s := range o.stats {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Backend < out[j].Backend })
	return out
}
