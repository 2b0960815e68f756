package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/adapter"
)

var _ adapter.GenerationBackend = (*DiffusionBackend)(nil)

// DiffusionBackend drives a local text-to-image runner as a subprocess.
type DiffusionBackend struct {
	command   string
	extraArgs []string
	outputDir string
	timeout   time.Duration
}

func NewDiffusionBackend(command string, extraArgs []string, outputDir string, timeout time.Duration) *DiffusionBackend {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &DiffusionBackend{command: command, extraArgs: extraArgs, outputDir: outputDir, timeout: timeout}
}

func (b *DiffusionBackend) Name() string { return "diffusion" }

func (b *DiffusionBackend) Info() adapter.BackendInfo {
	return adapter.BackendInfo{
		Name:        b.Name(),
		Description: "Local text-to-image diffusion runner",
		Strengths:   []string{"detailed scenes", "portraits", "landscapes"},
		AvgLatency:  "30s-2m",
	}
}

func (b *DiffusionBackend) Generate(ctx context.Context, prompt string, params map[string]any) (*model.GenerationResult, error) {
	args := append([]string{}, b.extraArgs...)
	args = append(args, "--prompt", prompt)
	if v, ok := params["width"]; ok {
		args = append(args, "--width", fmt.Sprint(v))
	}
	if v, ok := params["height"]; ok {
		args = append(args, "--height", fmt.Sprint(v))
	}
	if v, ok := params["steps"]; ok {
		args = append(args, "--steps", fmt.Sprint(v))
	}

	outPath, err := runRenderer(ctx, b.command, args, b.outputDir, b.timeout)
	if err != nil {
		return nil, err
	}
	return &model.GenerationResult{
		Backend:   b.Name(),
		OutputRef: outPath,
		Metadata:  map[string]string{"engine": "diffusion"},
	}, nil
}
