package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/prompt"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func newOrchestrator(reg *fakeRegistry, alwaysDefault bool) *orchestratorUC {
	return NewOrchestratorUseCase(OrchestratorConfig{
		DefaultBackend:       "diffusion",
		AlwaysIncludeDefault: alwaysDefault,
	}, reg, prompt.NewAnalyzer(newLogger()), newLogger())
}

func TestSelectBackendsStyleReferencePicksStyleTransfer(t *testing.T) {
	t.Parallel()
	reg := newFakeRegistry(&fakeBackend{name: "diffusion"}, &fakeBackend{name: "style_transfer"})
	o := newOrchestrator(reg, false)

	f := prompt.NewAnalyzer(newLogger()).Analyze("a harbor at dusk in the style of van gogh")
	got := o.SelectBackends(f)
	if len(got) == 0 || got[0] != "style_transfer" {
		t.Fatalf("backends = %v, want style_transfer first", got)
	}
}

func TestSelectBackendsDescriptivePromptPicksDiffusion(t *testing.T) {
	t.Parallel()
	reg := newFakeRegistry(&fakeBackend{name: "diffusion"}, &fakeBackend{name: "style_transfer"})
	o := newOrchestrator(reg, false)

	f := prompt.NewAnalyzer(newLogger()).Analyze(
		"a sweeping fantasy landscape with towering mountains, golden hour lighting, vibrant warm colors and rough stone texture everywhere")
	got := o.SelectBackends(f)
	if len(got) == 0 || got[0] != "diffusion" {
		t.Fatalf("backends = %v, want diffusion first", got)
	}
}

func TestSelectBackendsAppendsDefault(t *testing.T) {
	t.Parallel()
	reg := newFakeRegistry(&fakeBackend{name: "diffusion"}, &fakeBackend{name: "style_transfer"})
	o := newOrchestrator(reg, true)

	// Pure style prompt scores diffusion below threshold, but the default
	// is still appended when configured.
	f := prompt.NewAnalyzer(newLogger()).Analyze("in the style of monet")
	got := o.SelectBackends(f)
	found := false
	for _, name := range got {
		if name == "diffusion" {
			found = true
		}
	}
	if !found {
		t.Fatalf("backends = %v, want diffusion appended as default", got)
	}
	if got[len(got)-1] != "diffusion" {
		t.Fatalf("default backend not appended last: %v", got)
	}
}

func TestExecutePartialFailureStillCompletes(t *testing.T) {
	t.Parallel()
	reg := newFakeRegistry(
		&fakeBackend{name: "diffusion"},
		&fakeBackend{name: "style_transfer", err: errors.New("renderer crashed")},
	)
	o := newOrchestrator(reg, false)

	job := &model.Job{ID: "j1", Prompt: "x", Backends: []string{"diffusion", "style_transfer"}}
	if err := o.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	// Only the successful entry survives the ranking.
	if len(job.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(job.Results))
	}
	if job.Results[0].Backend != "diffusion" || job.Results[0].Failed() {
		t.Fatalf("result = %+v, want diffusion success", job.Results[0])
	}
	// The dropped failure still lands in the backend stats.
	for _, s := range o.Stats() {
		if s.Backend == "style_transfer" && s.Failures != 1 {
			t.Fatalf("style_transfer stats = %+v, want 1 failure", s)
		}
	}
}

func TestRankResultsDropsFailedEntries(t *testing.T) {
	t.Parallel()
	o := newOrchestrator(newFakeRegistry(), false)
	in := []model.GenerationResult{
		{Backend: "broken", Error: "renderer crashed"},
		{Backend: "working", OutputRef: "out/working", DurationMillis: 1000},
	}
	out := o.RankResults(in)
	if len(out) != 1 || out[0].Backend != "working" {
		t.Fatalf("ranking = %+v, want only the successful entry", out)
	}
}

func TestExecuteAllBackendsFailed(t *testing.T) {
	t.Parallel()
	reg := newFakeRegistry(
		&fakeBackend{name: "diffusion", err: errors.New("down")},
		&fakeBackend{name: "style_transfer", err: errors.New("also down")},
	)
	o := newOrchestrator(reg, false)

	job := &model.Job{ID: "j1", Prompt: "x", Backends: []string{"diffusion", "style_transfer"}}
	if err := o.Execute(context.Background(), job); !errors.Is(err, domain.ErrAllBackendsFailed) {
		t.Fatalf("err = %v, want ErrAllBackendsFailed", err)
	}
	for _, r := range job.Results {
		if r.Error == "" {
			t.Fatalf("result missing error: %+v", r)
		}
	}
}

func TestExecuteResolvesBackendsFromPrompt(t *testing.T) {
	t.Parallel()
	reg := newFakeRegistry(&fakeBackend{name: "diffusion"}, &fakeBackend{name: "style_transfer"})
	o := newOrchestrator(reg, true)

	job := &model.Job{ID: "j1", Prompt: "a fantasy landscape full of dramatic light"}
	if err := o.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(job.Backends) == 0 {
		t.Fatalf("backends were not resolved onto the job")
	}
}

func TestRankResultsAllFailedReturnsInputUnchanged(t *testing.T) {
	t.Parallel()
	o := newOrchestrator(newFakeRegistry(), false)
	in := []model.GenerationResult{
		{Backend: "a", Error: "x"},
		{Backend: "b", Error: "y"},
	}
	out := o.RankResults(in)
	if len(out) != 2 || out[0].Backend != "a" || out[1].Backend != "b" {
		t.Fatalf("all-failed ranking reordered input: %+v", out)
	}
}

func TestRankResultsPrefersFasterWithEqualHistory(t *testing.T) {
	t.Parallel()
	o := newOrchestrator(newFakeRegistry(), false)
	in := []model.GenerationResult{
		{Backend: "slow", OutputRef: "s", DurationMillis: 30000},
		{Backend: "fast", OutputRef: "f", DurationMillis: 500},
	}
	out := o.RankResults(in)
	if out[0].Backend != "fast" {
		t.Fatalf("ranking = %+v, want fast first", out)
	}
	if out[0].Score <= out[1].Score {
		t.Fatalf("scores not descending: %v vs %v", out[0].Score, out[1].Score)
	}
}

func TestRankResultsBlendsHistoricalAverage(t *testing.T) {
	t.Parallel()
	o := newOrchestrator(newFakeRegistry(), false)
	// Give "proven" a strong cross-user history.
	o.SeedStats([]*model.BackendStats{
		{Backend: "proven", Generations: 50, AvgScore: 0.95},
		{Backend: "weak", Generations: 50, AvgScore: 0.1},
	})
	in := []model.GenerationResult{
		{Backend: "weak", OutputRef: "w", DurationMillis: 1000},
		{Backend: "proven", OutputRef: "p", DurationMillis: 1000},
	}
	out := o.RankResults(in)
	if out[0].Backend != "proven" {
		t.Fatalf("ranking = %+v, want proven first", out)
	}
}

func TestStatsAccumulateAcrossJobs(t *testing.T) {
	t.Parallel()
	reg := newFakeRegistry(&fakeBackend{name: "diffusion", latency: time.Millisecond})
	o := newOrchestrator(reg, false)

	for i := 0; i < 3; i++ {
		job := &model.Job{ID: "j", Prompt: "x", Backends: []string{"diffusion"}}
		if err := o.Execute(context.Background(), job); err != nil {
			t.Fatalf("execute: %v", err)
		}
	}
	stats := o.Stats()
	if len(stats) != 1 || stats[0].Generations != 3 {
		t.Fatalf("stats = %+v, want 3 generations for diffusion", stats)
	}
}
