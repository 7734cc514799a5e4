package schema

// ErrorMode selects how a renderer responds to an undefined variable or a
// template parse failure: propagate it, substitute a literal, or call back
// into user code. This models the settings trichotomy from the design notes
// as a single tagged variant so call sites funnel through one Resolve
// instead of re-deriving raise/callable/literal branching at each error
// site.
type ErrorMode int

const (
	// ModeUnset means "no policy configured"; Settings merging treats it as
	// the zero value so it never overrides an already-configured policy.
	ModeUnset ErrorMode = iota
	ModeRaise
	// ModeReturnRaw substitutes the original, unexpanded value rather than
	// failing or emitting a partial expansion.
	ModeReturnRaw
	ModeLiteral
	ModeCallable
)

// ErrorFunc is the callable variant of an ErrorPolicy: given the key that
// failed, the underlying error, and the in-flight debug report, it produces
// the value to use in place of raising.
type ErrorFunc func(key string, err error, report *Report) string

// ErrorPolicy is the tagged raise|literal|callable variant used for
// on_templating_error, on_undefined_error, and on_undefined_template_error.
type ErrorPolicy struct {
	Mode    ErrorMode
	Literal string
	Fn      ErrorFunc
}

// Raise builds a policy that propagates the error.
func Raise() ErrorPolicy { return ErrorPolicy{Mode: ModeRaise} }

// ReturnRaw builds a policy that substitutes the original, unexpanded value.
func ReturnRaw() ErrorPolicy { return ErrorPolicy{Mode: ModeReturnRaw} }

// UseLiteral builds a policy that substitutes a fixed string.
func UseLiteral(value string) ErrorPolicy {
	return ErrorPolicy{Mode: ModeLiteral, Literal: value}
}

// UseFunc builds a policy that defers to a callback.
func UseFunc(fn ErrorFunc) ErrorPolicy {
	return ErrorPolicy{Mode: ModeCallable, Fn: fn}
}

// Resolve funnels the raise|return-raw|literal|callable variants into a
// single call: it either returns a replacement value, or sets raise=true
// meaning the caller should propagate err unchanged. raw is the original,
// unexpanded value to use for ModeReturnRaw.
func (p ErrorPolicy) Resolve(key string, err error, report *Report, raw string) (value string, raise bool) {
	switch p.Mode {
	case ModeReturnRaw:
		return raw, false
	case ModeLiteral:
		return p.Literal, false
	case ModeCallable:
		if p.Fn == nil {
			return "", true
		}
		return p.Fn(key, err, report), false
	default:
		return "", true
	}
}

func boolPtr(v bool) *bool { return &v }

// Settings are the per-render-call options: which policy governs
// undefined-variable and templating errors, and whether templating,
// debug reporting, and caching are enabled. Template, Debug, and Cache are
// pointers so that an explicit false can be distinguished from "not set"
// when merging caller overrides onto defaults.
type Settings struct {
	OnTemplatingError        ErrorPolicy
	OnUndefinedError         ErrorPolicy
	OnUndefinedTemplateError ErrorPolicy
	Template                 *bool
	Debug                    *bool
	Cache                    *bool
	// Engine names a template engine ("expandvars" or "stringtemplate").
	// The Renderer does not read it: a Renderer always uses the engine it
	// was built with.
	Engine string
}

// DefaultSettings returns the renderer's out-of-the-box policy table:
// templating errors fall back to the raw value, undefined template-only
// lookups use ReturnRaw (an undefined key has no raw value, so the error
// propagates), a top-level undefined variable raises, and templating and
// caching are enabled while debug reporting is off.
func DefaultSettings() Settings {
	return Settings{
		OnTemplatingError:        ReturnRaw(),
		OnUndefinedError:         Raise(),
		OnUndefinedTemplateError: ReturnRaw(),
		Template:                 boolPtr(true),
		Debug:                    boolPtr(false),
		Cache:                    boolPtr(true),
	}
}

// WithTemplate sets Template explicitly.
func (s Settings) WithTemplate(v bool) Settings { s.Template = boolPtr(v); return s }

// WithDebug sets Debug explicitly.
func (s Settings) WithDebug(v bool) Settings { s.Debug = boolPtr(v); return s }

// WithCache sets Cache explicitly.
func (s Settings) WithCache(v bool) Settings { s.Cache = boolPtr(v); return s }

func (s Settings) templateOr(def bool) bool {
	if s.Template == nil {
		return def
	}
	return *s.Template
}

func (s Settings) debugOr(def bool) bool {
	if s.Debug == nil {
		return def
	}
	return *s.Debug
}

func (s Settings) cacheOr(def bool) bool {
	if s.Cache == nil {
		return def
	}
	return *s.Cache
}

// TemplateEnabled resolves Template, defaulting to true when unset.
func (s Settings) TemplateEnabled() bool { return s.templateOr(true) }

// DebugEnabled resolves Debug, defaulting to false when unset.
func (s Settings) DebugEnabled() bool { return s.debugOr(false) }

// CacheEnabled resolves Cache, defaulting to true when unset.
func (s Settings) CacheEnabled() bool { return s.cacheOr(true) }
