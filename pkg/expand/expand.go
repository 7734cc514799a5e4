// Package expand implements a shell-style variable expander: a pure
// function from (template, lookup, options) to an expanded string,
// supporting the usual POSIX parameter-expansion operators ($VAR,
// ${VAR}, indirection, defaults, substring, and process-id expansion).
package expand

import (
	"os"
	"strings"

	varerrors "github.com/nimbusconf/varstore/errors"
)

// Lookup resolves a variable name to its current string value. ok reports
// whether the name is bound at all (as distinct from bound-to-empty).
type Lookup interface {
	Get(key string) (value string, ok bool)
}

// MutableLookup additionally allows the "=default" modifier to write a
// default back into the backing store. A Lookup that does not implement
// MutableLookup makes "=" behave exactly like "-": the default is
// substituted but never persisted.
type MutableLookup interface {
	Lookup
	Set(key, value string)
}

// MapLookup is a simple mutable, in-memory Lookup backed by a map.
type MapLookup map[string]string

func (m MapLookup) Get(key string) (string, bool) { v, ok := m[key]; return v, ok }
func (m MapLookup) Set(key, value string)          { m[key] = value }

// PIDMode selects how "$$" is handled.
type PIDMode int

const (
	// PIDProcess substitutes the current process id (the default).
	PIDProcess PIDMode = iota
	// PIDLiteral substitutes a fixed string.
	PIDLiteral
	// PIDDisabled leaves "$$" untouched.
	PIDDisabled
)

// PIDValue configures how the expander handles a literal "$$" token.
type PIDValue struct {
	Mode    PIDMode
	Literal string
}

// PIDEnabled requests process-id substitution (pid_value=true).
func PIDEnabled() PIDValue { return PIDValue{Mode: PIDProcess} }

// PIDFixed substitutes literal for "$$" (pid_value=<string>).
func PIDFixed(literal string) PIDValue { return PIDValue{Mode: PIDLiteral, Literal: literal} }

// PIDOff leaves "$$" as-is (pid_value=false).
func PIDOff() PIDValue { return PIDValue{Mode: PIDDisabled} }

// Options configure an Expander.
type Options struct {
	// VarSymbol begins a reference; defaults to '$'.
	VarSymbol rune
	// Strict fails unbound references instead of emitting "".
	Strict bool
	// PID controls "$$" expansion.
	PID PIDValue
	// RecoverNull, if non-nil, is substituted instead of failing a
	// strict-mode/required reference. If left nil, the process-wide
	// RECOVER_NULL environment variable is consulted once at New.
	RecoverNull *string
}

// Expander is a pure function from (template, lookup) to expanded string,
// configured once and reused across calls.
type Expander struct {
	varSymbol   rune
	strict      bool
	pid         PIDValue
	recoverNull *string
}

// New builds an Expander from opts, defaulting VarSymbol to '$' and PID to
// process-id substitution, and reading RECOVER_NULL from the process
// environment when opts.RecoverNull is nil.
func New(opts Options) *Expander {
	symbol := opts.VarSymbol
	if symbol == 0 {
		symbol = '$'
	}

	recoverNull := opts.RecoverNull
	if recoverNull == nil {
		if v, ok := os.LookupEnv("RECOVER_NULL"); ok {
			recoverNull = &v
		}
	}

	pid := opts.PID
	if pid == (PIDValue{}) {
		pid = PIDEnabled()
	}

	return &Expander{
		varSymbol:   symbol,
		strict:      opts.Strict,
		pid:         pid,
		recoverNull: recoverNull,
	}
}

// IsTemplate reports whether s contains the expander's var symbol at all,
// used by the Renderer to short-circuit values with no template markers.
func (e *Expander) IsTemplate(s string) bool {
	return strings.ContainsRune(s, e.varSymbol)
}

// Expand rewrites template using lookup, resolving every variable
// reference it contains.
func (e *Expander) Expand(template string, lookup Lookup) (string, error) {
	p := &parser{
		varSymbol:   e.varSymbol,
		strict:      e.strict,
		pid:         e.pid,
		recoverNull: e.recoverNull,
		lookup:      lookup,
	}

	result, err := p.expand([]rune(template))
	if err == nil {
		return result, nil
	}

	// These three parse-error kinds always report the *entire* original
	// template as the offending fragment, regardless of how deep inside it
	// the failure occurred.
	switch {
	case varerrors.Is(err, varerrors.ErrMissingClosingBrace):
		return "", &ParseError{Err: varerrors.ErrMissingClosingBrace, Fragment: template}
	case varerrors.Is(err, varerrors.ErrMissingEscapedChar):
		return "", &ParseError{Err: varerrors.ErrMissingEscapedChar, Fragment: template}
	case varerrors.Is(err, varerrors.ErrBadSubstitution):
		return "", &ParseError{Err: varerrors.ErrBadSubstitution, Fragment: template}
	default:
		return "", err
	}
}
