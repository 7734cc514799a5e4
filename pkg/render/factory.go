package render

import (
	"sync"

	varerrors "github.com/nimbusconf/varstore/errors"
	"github.com/nimbusconf/varstore/pkg/expand"
	"github.com/nimbusconf/varstore/pkg/store"
)

// Engine names recognized by Factory.GetRenderer.
const (
	EngineExpandVars     = "expandvars"
	EngineStringTemplate = "stringtemplate"
)

// Factory memoizes one Renderer per (scope, engine) pair against a single
// LayerStore, so repeated callers asking for the same scope share a cache
// instead of rebuilding it on every call.
type Factory struct {
	store *store.LayerStore
	opts  []Option

	mu        sync.Mutex
	renderers map[string]*Renderer
}

// NewFactory builds a Factory; opts are applied to every Renderer it hands out.
func NewFactory(st *store.LayerStore, opts ...Option) *Factory {
	return &Factory{store: st, opts: opts, renderers: map[string]*Renderer{}}
}

// GetRenderer returns the memoized Renderer for (scope, engineName),
// building it on first request. engineName "" defaults to "expandvars".
func (f *Factory) GetRenderer(scope, engineName string) (*Renderer, error) {
	if engineName == "" {
		engineName = EngineExpandVars
	}

	key := scope + "|" + engineName

	f.mu.Lock()
	defer f.mu.Unlock()

	if r, ok := f.renderers[key]; ok {
		return r, nil
	}

	var engine Engine
	switch engineName {
	case EngineExpandVars:
		engine = NewExpandVarsEngine(expand.Options{})
	case EngineStringTemplate:
		engine = NewStringTemplateEngine()
	default:
		return nil, varerrors.Build(varerrors.ErrTemplateEngineError).
			WithContext("engine", engineName).
			WithHint("known engines are \"expandvars\" and \"stringtemplate\"").
			Err()
	}

	r := New(f.store, scope, engine, f.opts...)
	f.renderers[key] = r
	return r, nil
}
