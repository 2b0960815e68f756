package adapter

import (
	"context"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
)

// BackendInfo describes a generation backend.
type BackendInfo struct {
	Name        string
	Description string
	Strengths   []string
	AvgLatency  string
}

// GenerationBackend is the port for one image-generation engine. A failed
// generation returns a non-nil error; the orchestrator converts it into a
// result entry so sibling backends still run.
type GenerationBackend interface {
	Name() string
	Info() BackendInfo

	// Generate produces one image for the prompt and returns a reference to
	// the stored output. Params are backend-specific (e.g. "baseImage" for
	// style transfer).
	Generate(ctx context.Context, prompt string, params map[string]any) (*model.GenerationResult, error)
}

// BackendRegistry routes backend names to adapters.
type BackendRegistry interface {
	Resolve(name string) (GenerationBackend, error)
	Names() []string
}
