package backend

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/adapter"
)

var _ adapter.GenerationBackend = (*MockBackend)(nil)

// MockBackend implements adapter.GenerationBackend for local/dev testing.
// It simulates a short render instead of calling a real engine.
type MockBackend struct {
	name    string
	latency time.Duration
}

func NewMockBackend(name string, latency time.Duration) *MockBackend {
	if name == "" {
		name = "mock"
	}
	if latency <= 0 {
		latency = 100 * time.Millisecond
	}
	return &MockBackend{name: name, latency: latency}
}

func (m *MockBackend) Name() string { return m.name }

func (m *MockBackend) Info() adapter.BackendInfo {
	return adapter.BackendInfo{
		Name:        m.name,
		Description: "Mock backend for testing",
		Strengths:   []string{"instant results"},
		AvgLatency:  m.latency.String(),
	}
}

func (m *MockBackend) Generate(ctx context.Context, prompt string, params map[string]any) (*model.GenerationResult, error) {
	select {
	case <-time.After(m.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &model.GenerationResult{
		Backend:   m.name,
		OutputRef: "mock://" + uuid.NewString(),
		Metadata:  map[string]string{"engine": "mock"},
	}, nil
}
