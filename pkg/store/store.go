// Package store implements the layered, scoped variable store: LayerStore
// owns registered Sources, Scope definitions resolved into flat Source
// orderings, and the Layers bound to each Source. It has no awareness of
// templating — that lives in pkg/render.
package store

import (
	"sort"
	"sync"

	varerrors "github.com/nimbusconf/varstore/errors"
	"github.com/nimbusconf/varstore/pkg/schema"
)

// LayerStore owns the registered sources, the scope definitions built on
// top of them, and the concrete key/value layer bound to each source.
type LayerStore struct {
	mu sync.RWMutex

	sources       map[string]schema.Source
	insertOrder   map[string]int
	nextInsertIdx int

	scopeDefs     map[string][]string
	scopeResolved map[string][]schema.Source

	layers map[string]schema.Layer
}

// New constructs an empty LayerStore.
func New() *LayerStore {
	return &LayerStore{
		sources:       map[string]schema.Source{},
		insertOrder:   map[string]int{},
		scopeDefs:     map[string][]string{},
		scopeResolved: map[string][]schema.Source{},
		layers:        map[string]schema.Layer{},
	}
}

// AddSources registers one or more sources. Re-using a name fails with
// ErrAlreadyExistingSource unless force is true.
func (s *LayerStore) AddSources(force bool, sources ...schema.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, src := range sources {
		if _, exists := s.sources[src.Name]; exists && !force {
			return varerrors.Build(varerrors.ErrAlreadyExistingSource).
				WithContext("source", src.Name).
				WithHint("pass force=true to replace an existing source").
				Err()
		}
	}

	for _, src := range sources {
		if _, exists := s.sources[src.Name]; !exists {
			s.insertOrder[src.Name] = s.nextInsertIdx
			s.nextInsertIdx++
		}
		s.sources[src.Name] = src
	}
	return nil
}

// SetScopes merges scopeRefs into the existing scope definitions and
// re-resolves every scope. On failure (missing reference or cycle) the
// store's scopes are left exactly as they were before the call.
func (s *LayerStore) SetScopes(scopeRefs map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[string][]string, len(s.scopeDefs)+len(scopeRefs))
	for k, v := range s.scopeDefs {
		merged[k] = v
	}
	for k, v := range scopeRefs {
		merged[k] = v
	}

	resolved := make(map[string][]schema.Source, len(merged))
	for name := range merged {
		flat, err := resolveScope(name, merged, s.sources, nil)
		if err != nil {
			return err
		}
		resolved[name] = flat
	}

	s.scopeDefs = merged
	s.scopeResolved = resolved
	return nil
}

// SetLayer attaches or replaces the layer for sourceName.
func (s *LayerStore) SetLayer(sourceName string, payload map[string]any, meta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.sources[sourceName]
	if !ok {
		return varerrors.Build(varerrors.ErrUnknownSource).
			WithContext("source", sourceName).
			Err()
	}

	if payload == nil {
		payload = map[string]any{}
	}
	if meta == nil {
		meta = map[string]any{}
	}

	s.layers[sourceName] = schema.Layer{Source: src, Payload: payload, Meta: meta}
	return nil
}

// GetOrderedSources returns all registered sources stably sorted by level
// when scope is "", or the scope's resolved ordering otherwise.
func (s *LayerStore) GetOrderedSources(scope string) ([]schema.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getOrderedSourcesLocked(scope)
}

func (s *LayerStore) getOrderedSourcesLocked(scope string) ([]schema.Source, error) {
	if scope == "" {
		out := make([]schema.Source, 0, len(s.sources))
		for _, src := range s.sources {
			out = append(out, src)
		}
		sort.SliceStable(out, func(i, j int) bool {
			li, lj := out[i].EffectiveLevel(), out[j].EffectiveLevel()
			if li != lj {
				return li < lj
			}
			return s.insertOrder[out[i].Name] < s.insertOrder[out[j].Name]
		})
		return out, nil
	}

	resolved, ok := s.scopeResolved[scope]
	if !ok {
		return nil, varerrors.Build(varerrors.ErrUnknownScope).
			WithContext("scope", scope).
			Err()
	}
	out := make([]schema.Source, len(resolved))
	copy(out, resolved)
	return out, nil
}

// GetOrderedLayers filters GetOrderedSources to sources with an attached
// layer, preserving order.
func (s *LayerStore) GetOrderedLayers(scope string) ([]schema.Layer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources, err := s.getOrderedSourcesLocked(scope)
	if err != nil {
		return nil, err
	}

	out := make([]schema.Layer, 0, len(sources))
	for _, src := range sources {
		if layer, ok := s.layers[src.Name]; ok {
			out = append(out, layer)
		}
	}
	return out, nil
}

// GetVarNames returns the union of keys across the ordered layers of scope.
func (s *LayerStore) GetVarNames(scope string) ([]string, error) {
	layers, err := s.GetOrderedLayers(scope)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var out []string
	for _, layer := range layers {
		for key := range layer.Payload {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	return out, nil
}

// GetValue returns the value from the first (highest-priority) layer whose
// payload contains key, or ErrUndefinedVar if none does.
func (s *LayerStore) GetValue(key, scope string) (any, error) {
	layers, err := s.GetOrderedLayers(scope)
	if err != nil {
		return nil, err
	}

	for _, layer := range layers {
		if v, ok := layer.Payload[key]; ok {
			return v, nil
		}
	}

	return nil, varerrors.Build(varerrors.ErrUndefinedVar).
		WithContext("key", key).
		WithContext("scope", scope).
		Err()
}

// InspectVar returns every layer containing key, in priority order, as a
// debug aid.
func (s *LayerStore) InspectVar(key, scope string) ([]schema.Provenance, error) {
	layers, err := s.GetOrderedLayers(scope)
	if err != nil {
		return nil, err
	}

	var out []schema.Provenance
	for _, layer := range layers {
		if v, ok := layer.Payload[key]; ok {
			out = append(out, schema.Provenance{
				Type:   schema.LayerBinding,
				Source: layer.Source.Name,
				Level:  layer.Source.EffectiveLevel(),
				Value:  v,
			})
		}
	}

	if out == nil {
		return nil, varerrors.Build(varerrors.ErrUndefinedVar).
			WithContext("key", key).
			WithContext("scope", scope).
			Err()
	}
	return out, nil
}
