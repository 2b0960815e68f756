package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/adapter"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
)

// ---- In-memory PreferenceRepository ----

type MockPreferenceRepo struct {
	mu       sync.Mutex
	states   map[string]*model.UserPreferenceState
	newState func(string) *model.UserPreferenceState

	LoadErr error
	SaveErr error
	Saves   int
}

func NewMockPreferenceRepo(newState func(string) *model.UserPreferenceState) *MockPreferenceRepo {
	return &MockPreferenceRepo{states: map[string]*model.UserPreferenceState{}, newState: newState}
}

func (m *MockPreferenceRepo) Load(ctx context.Context, tx repository.Tx, userID string) (*model.UserPreferenceState, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[userID]; ok {
		cp := *s
		return &cp, nil
	}
	return m.newState(userID), nil
}

func (m *MockPreferenceRepo) Save(ctx context.Context, tx repository.Tx, state *model.UserPreferenceState) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[state.UserID] = &cp
	m.Saves++
	return nil
}

// ---- Pass-through TransactionManager ----

type MockTxManager struct {
	BeginErr error
	Began    int
}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.BeginErr != nil {
		return m.BeginErr
	}
	m.Began++
	return fn(ctx, repository.NoTX)
}

// ---- In-memory Locker (implements redis.Locker port) ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, ok := l.ErrOn[key]; ok {
		return "", err
	}
	if _, taken := l.held[key]; taken {
		return "", domain.ErrLockNotAcquired
	}
	l.held[key] = "token"
	return "token", nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// ---- Fake generation backends + registry ----

type fakeBackend struct {
	name    string
	latency time.Duration
	err     error
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Info() adapter.BackendInfo {
	return adapter.BackendInfo{Name: f.name}
}

func (f *fakeBackend) Generate(ctx context.Context, prompt string, params map[string]any) (*model.GenerationResult, error) {
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.GenerationResult{Backend: f.name, OutputRef: "out/" + f.name}, nil
}

type fakeRegistry struct {
	backends map[string]adapter.GenerationBackend
}

func newFakeRegistry(backends ...adapter.GenerationBackend) *fakeRegistry {
	m := map[string]adapter.GenerationBackend{}
	for _, b := range backends {
		m[b.Name()] = b
	}
	return &fakeRegistry{backends: m}
}

func (r *fakeRegistry) Resolve(name string) (adapter.GenerationBackend, error) {
	if b, ok := r.backends[name]; ok {
		return b, nil
	}
	return nil, domain.ErrUnknownBackend
}

func (r *fakeRegistry) Names() []string {
	out := make([]string, 0, len(r.backends))
	for name := range r.backends {
		out = append(out, name)
	}
	return out
}
