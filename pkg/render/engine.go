package render

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	varerrors "github.com/nimbusconf/varstore/errors"
	"github.com/nimbusconf/varstore/pkg/expand"
)

// Engine is the capability set the Renderer depends on: detect whether a
// string is a template, and parse it into a reusable Template.
type Engine interface {
	IsTemplate(s string) bool
	GetTemplate(s string) (Template, error)
}

// Template executes a parsed template against a lazy lookup, recursively
// resolved by the Renderer one key at a time.
type Template interface {
	Execute(lookup expand.Lookup) (string, error)
}

// expandVarsEngine is the default engine: the full shell-style grammar from
// pkg/expand.
type expandVarsEngine struct {
	exp *expand.Expander
}

// NewExpandVarsEngine builds the default $NAME/${NAME} engine.
func NewExpandVarsEngine(opts expand.Options) Engine {
	return &expandVarsEngine{exp: expand.New(opts)}
}

func (e *expandVarsEngine) IsTemplate(s string) bool { return e.exp.IsTemplate(s) }

func (e *expandVarsEngine) GetTemplate(s string) (Template, error) {
	return expandTemplate{raw: s, exp: e.exp}, nil
}

type expandTemplate struct {
	raw string
	exp *expand.Expander
}

func (t expandTemplate) Execute(lookup expand.Lookup) (string, error) {
	return t.exp.Expand(t.raw, lookup)
}

// stringTemplateEngine is the alternate engine: Go's text/template plus
// sprig's function library, recognizing "{{ ... }}" markers. Dynamic
// variable references use the "vref" function rather than dot-field access,
// since the lookup must stay lazy (no struct can be built ahead of time
// without eagerly resolving every reference).
type stringTemplateEngine struct{}

// NewStringTemplateEngine builds the sprig-backed "{{ }}" engine.
func NewStringTemplateEngine() Engine { return stringTemplateEngine{} }

func (stringTemplateEngine) IsTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

var placeholderVref = func(string) (string, error) {
	return "", varerrors.New("vref called outside of template execution")
}

func (stringTemplateEngine) GetTemplate(s string) (Template, error) {
	tmpl, err := template.New("value").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{"vref": placeholderVref}).
		Parse(s)
	if err != nil {
		return nil, varerrors.Build(varerrors.ErrTemplateEngineError).
			WithContext("template", s).
			WithContext("error", err.Error()).
			Err()
	}
	return &goTemplate{tmpl: tmpl}, nil
}

type goTemplate struct {
	tmpl *template.Template
}

func (t *goTemplate) Execute(lookup expand.Lookup) (string, error) {
	bound, err := t.tmpl.Clone()
	if err != nil {
		return "", varerrors.Build(varerrors.ErrTemplateEngineError).WithContext("error", err.Error()).Err()
	}

	bound = bound.Funcs(template.FuncMap{
		"vref": func(name string) (string, error) {
			v, ok := lookup.Get(name)
			if !ok {
				return "", varerrors.Build(varerrors.ErrTemplateKeyError).WithContext("key", name).Err()
			}
			return v, nil
		},
	})

	var buf strings.Builder
	if err := bound.Execute(&buf, nil); err != nil {
		if kerr, ok := err.(interface{ Unwrap() error }); ok {
			if cause := kerr.Unwrap(); cause != nil {
				return "", cause
			}
		}
		return "", varerrors.Build(varerrors.ErrTemplateValueError).WithContext("error", err.Error()).Err()
	}
	return buf.String(), nil
}
