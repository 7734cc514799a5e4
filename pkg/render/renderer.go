// Package render implements the recursive Renderer: it resolves one key at
// a time against a LayerStore, expanding templated string values by
// recursively re-entering itself through a lazy lookup, detecting circular
// references, and caching per scope.
package render

import (
	"fmt"
	"sync"

	"dario.cat/mergo"
	"github.com/google/uuid"

	varerrors "github.com/nimbusconf/varstore/errors"
	"github.com/nimbusconf/varstore/pkg/logger"
	"github.com/nimbusconf/varstore/pkg/schema"
	"github.com/nimbusconf/varstore/pkg/store"
)

// defaultMaxDepth is the recursion ceiling applied to nested template
// resolution; hardMaxDepth is the hard cap a caller may raise it to.
const (
	defaultMaxDepth = 64
	hardMaxDepth    = 1024
)

// Renderer resolves keys within one LayerStore scope.
type Renderer struct {
	store  *store.LayerStore
	scope  string
	engine Engine

	maxDepth int
	log      *logger.Logger

	baseSettings *schema.Settings

	cacheMu sync.RWMutex
	cache   map[string]string
}

// Option configures a Renderer at construction.
type Option func(*Renderer)

// WithLogger attaches a logger used for templating-error warnings.
func WithLogger(l *logger.Logger) Option { return func(r *Renderer) { r.log = l } }

// WithBaseSettings supplies renderer-level settings that sit between
// DefaultSettings() and whatever is passed to an individual Render call.
func WithBaseSettings(s schema.Settings) Option { return func(r *Renderer) { r.baseSettings = &s } }

// WithMaxDepth overrides the recursion ceiling (clamped to hardMaxDepth).
func WithMaxDepth(n int) Option {
	return func(r *Renderer) {
		if n <= 0 {
			return
		}
		if n > hardMaxDepth {
			n = hardMaxDepth
		}
		r.maxDepth = n
	}
}

// New builds a Renderer bound to one scope and engine.
func New(st *store.LayerStore, scope string, engine Engine, opts ...Option) *Renderer {
	r := &Renderer{
		store:    st,
		scope:    scope,
		engine:   engine,
		maxDepth: defaultMaxDepth,
		cache:    map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render resolves key, applying DefaultSettings() merged with any settings
// the Renderer was built with and any overrides passed here, in that order.
// The returned *schema.Report is non-nil only when debug is enabled.
func (r *Renderer) Render(key string, overrides ...schema.Settings) (any, *schema.Report, error) {
	settings, err := r.resolveSettings(overrides...)
	if err != nil {
		return nil, nil, err
	}

	report := schema.NewReport(uuid.NewString(), key, r.scope)
	qctx := &queryContext{settings: settings, report: report, depth: 0, path: []string{key}}

	val, err := r.renderKey(key, qctx)

	var rep *schema.Report
	if settings.DebugEnabled() {
		rep = report
	}
	return val, rep, err
}

// RenderAll resolves every variable name visible in the bound scope.
func (r *Renderer) RenderAll(overrides ...schema.Settings) (map[string]any, error) {
	names, err := r.store.GetVarNames(r.scope)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(names))
	for _, name := range names {
		val, _, err := r.Render(name, overrides...)
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

func (r *Renderer) resolveSettings(overrides ...schema.Settings) (schema.Settings, error) {
	merged := schema.DefaultSettings()

	if r.baseSettings != nil {
		if err := mergo.Merge(&merged, *r.baseSettings, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			return schema.Settings{}, varerrors.Wrap(err, "merging renderer base settings")
		}
	}
	for _, o := range overrides {
		if err := mergo.Merge(&merged, o, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			return schema.Settings{}, varerrors.Wrap(err, "merging render call settings")
		}
	}
	return merged, nil
}

// renderKey looks up key, resolves the caching/templating/undefined-error
// policy around it, and returns its fully rendered value. The caller
// (Render, or childLookup for recursive re-entry) is responsible for the
// cycle check and queryContext frame bookkeeping before calling in.
func (r *Renderer) renderKey(key string, qctx *queryContext) (any, error) {
	if qctx.settings.CacheEnabled() {
		if v, ok := r.getCached(key); ok {
			return v, nil
		}
	}

	raw, err := r.store.GetValue(key, r.scope)
	if err != nil {
		if varerrors.Is(err, varerrors.ErrUndefinedVar) {
			val, raise := qctx.settings.OnUndefinedError.Resolve(key, err, qctx.report, "")
			if raise {
				return nil, err
			}
			return val, nil
		}
		return nil, err
	}

	str, isString := raw.(string)
	if !isString || !qctx.settings.TemplateEnabled() || !r.engine.IsTemplate(str) {
		return raw, nil
	}
	qctx.report.Templated = true

	tmpl, err := r.engine.GetTemplate(str)
	if err != nil {
		return r.handleTemplatingError(key, err, qctx, str)
	}

	lookup := &childLookup{r: r, qctx: qctx, overlay: map[string]string{}}
	result, err := tmpl.Execute(lookup)
	if lookup.err != nil {
		return nil, lookup.err
	}
	if err != nil {
		return r.handleTemplatingError(key, err, qctx, str)
	}

	if qctx.settings.CacheEnabled() {
		r.setCached(key, result)
	}
	return result, nil
}

func (r *Renderer) handleTemplatingError(key string, err error, qctx *queryContext, raw string) (any, error) {
	val, raise := qctx.settings.OnTemplatingError.Resolve(key, err, qctx.report, raw)
	if raise {
		return nil, err
	}
	msg := fmt.Sprintf("templating error for %q: %v", key, err)
	qctx.report.Warn(msg)
	r.logger().Warning("templating error", "key", key, "scope", r.scope, "error", err.Error())
	return val, nil
}

// defaultLog is used by renderers built without WithLogger: level Warning,
// writing to stderr.
var defaultLog, _ = logger.InitializeLogger(logger.LogLevelWarning, "")

func (r *Renderer) logger() *logger.Logger {
	if r.log != nil {
		return r.log
	}
	return defaultLog
}

func (r *Renderer) getCached(key string) (string, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	v, ok := r.cache[key]
	return v, ok
}

func (r *Renderer) setCached(key, value string) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cache[key] = value
}

// childLookup is the lazy environment handed to an Engine's Template: each
// Get recursively re-enters the Renderer for that key instead of resolving
// eagerly, so a template only pays for the keys it actually references.
// Any error that must propagate (cycle, depth ceiling, a raised policy) is
// latched in err, since the expand.Lookup interface has no error return of
// its own; the caller inspects err after Execute.
type childLookup struct {
	r       *Renderer
	qctx    *queryContext
	overlay map[string]string
	err     error
}

func (l *childLookup) Get(key string) (string, bool) {
	if l.err != nil {
		return "", false
	}
	if v, ok := l.overlay[key]; ok {
		return v, true
	}

	if containsString(l.qctx.path, key) {
		l.err = cycleErr(l.qctx.path, key)
		return "", false
	}
	if l.qctx.depth+1 > l.r.maxDepth {
		l.err = depthErr(key, l.r.maxDepth)
		return "", false
	}

	path := append(append([]string(nil), l.qctx.path...), key)
	child := &queryContext{settings: l.qctx.settings, report: l.qctx.report, depth: l.qctx.depth + 1, path: path}
	child.report.Push(key)

	val, err := l.r.renderKey(key, child)
	if err != nil {
		switch {
		case varerrors.Is(err, varerrors.ErrTemplateRenderingCircularValue),
			varerrors.Is(err, varerrors.ErrMaxRecursionDepth):
			l.err = err
			return "", false
		case varerrors.Is(err, varerrors.ErrUndefinedVar):
			// An undefined key has no raw value, so ReturnRaw propagates
			// the error just as Raise does.
			policy := l.qctx.settings.OnUndefinedTemplateError
			resolved, raise := policy.Resolve(key, err, l.qctx.report, "")
			if raise || policy.Mode == schema.ModeReturnRaw {
				l.err = err
				return "", false
			}
			return resolved, true
		default:
			l.err = err
			return "", false
		}
	}

	return stringify(val), true
}

func (l *childLookup) Set(key, value string) {
	if l.overlay == nil {
		l.overlay = map[string]string{}
	}
	l.overlay[key] = value
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
