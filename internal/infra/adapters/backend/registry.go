// Package backend hosts the generation engine adapters and the registry
// that routes backend names to them.
package backend

import (
	"sort"
	"strings"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/adapter"
)

var _ adapter.BackendRegistry = (*Registry)(nil)

type Registry struct {
	defaultName string
	byName      map[string]adapter.GenerationBackend
}

// NewRegistry wires the configured adapters. The default name serves
// empty lookups only; unknown names are always an error so a typo in a
// request cannot silently generate on the wrong engine.
func NewRegistry(defaultName string, backends ...adapter.GenerationBackend) *Registry {
	byName := make(map[string]adapter.GenerationBackend, len(backends))
	for _, b := range backends {
		byName[strings.ToLower(b.Name())] = b
	}
	return &Registry{defaultName: strings.ToLower(defaultName), byName: byName}
}

func (r *Registry) Resolve(name string) (adapter.GenerationBackend, error) {
	if name == "" {
		name = r.defaultName
	}
	if b, ok := r.byName[strings.ToLower(name)]; ok {
		return b, nil
	}
	return nil, domain.ErrUnknownBackend
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
