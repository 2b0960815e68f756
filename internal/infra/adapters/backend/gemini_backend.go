package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/adapter"
)

var _ adapter.GenerationBackend = (*GeminiBackend)(nil)

// GeminiBackend generates images through the official SDK and writes the
// inline image bytes under the output dir.
type GeminiBackend struct {
	client    *genai.Client
	model     string
	outputDir string
	timeout   time.Duration
}

func NewGeminiBackend(ctx context.Context, apiKey, baseURL, modelName, outputDir string, timeout time.Duration) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash-exp"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiBackend{client: c, model: modelName, outputDir: outputDir, timeout: timeout}, nil
}

func (g *GeminiBackend) Name() string { return "gemini" }

func (g *GeminiBackend) Info() adapter.BackendInfo {
	return adapter.BackendInfo{
		Name:        g.Name(),
		Description: "Gemini image generation (" + g.model + ")",
		Strengths:   []string{"fast drafts", "mixed text-image prompts"},
		AvgLatency:  "3-15s",
	}
}

func (g *GeminiBackend) Generate(ctx context.Context, prompt string, params map[string]any) (*model.GenerationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: empty response")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("output dir: %w", err)
		}
		outPath := filepath.Join(g.outputDir, uuid.NewString()+".png")
		if err := os.WriteFile(outPath, part.InlineData.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write image: %w", err)
		}
		return &model.GenerationResult{
			Backend:   g.Name(),
			OutputRef: outPath,
			Metadata:  map[string]string{"engine": "gemini", "model": g.model},
		}, nil
	}
	return nil, errors.New("gemini: response carried no image part")
}
