package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.GenerationBackend = (*OpenAIBackend)(nil)

// OpenAIBackend implements adapter.GenerationBackend using the Images API.
type OpenAIBackend struct {
	apiKey    string
	base      string // e.g., https://api.openai.com/v1
	model     string
	outputDir string
	client    *http.Client
}

func NewOpenAIBackend(apiKey, baseURL, model, outputDir string, timeout time.Duration) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "dall-e-3"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIBackend{
		apiKey:    apiKey,
		base:      baseURL,
		model:     model,
		outputDir: outputDir,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func (o *OpenAIBackend) Name() string { return "openai" }

func (o *OpenAIBackend) Info() adapter.BackendInfo {
	return adapter.BackendInfo{
		Name:        o.Name(),
		Description: "OpenAI Images API (" + o.model + ")",
		Strengths:   []string{"photorealism", "prompt adherence"},
		AvgLatency:  "5-30s",
	}
}

func (o *OpenAIBackend) Generate(ctx context.Context, prompt string, params map[string]any) (*model.GenerationResult, error) {
	size := "1024x1024"
	if v, ok := params["size"].(string); ok && v != "" {
		size = v
	}

	reqBody := struct {
		Model          string `json:"model"`
		Prompt         string `json:"prompt"`
		N              int    `json:"n"`
		Size           string `json:"size"`
		ResponseFormat string `json:"response_format"`
	}{Model: o.model, Prompt: prompt, N: 1, Size: size, ResponseFormat: "b64_json"}

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/images/generations", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			B64JSON       string `json:"b64_json"`
			RevisedPrompt string `json:"revised_prompt"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 || payload.Data[0].B64JSON == "" {
		return nil, errors.New("no image data")
	}

	raw, err := base64.StdEncoding.DecodeString(payload.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	outPath := filepath.Join(o.outputDir, uuid.NewString()+".png")
	if err := os.WriteFile(outPath, raw, 0o644); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	meta := map[string]string{"engine": "openai", "model": o.model}
	if payload.Data[0].RevisedPrompt != "" {
		meta["revised_prompt"] = payload.Data[0].RevisedPrompt
	}
	return &model.GenerationResult{Backend: o.Name(), OutputRef: outPath, Metadata: meta}, nil
}
