// Package errors provides the shared error taxonomy for varstore: sentinel
// errors for application-time (setup) failures and user-time (query)
// failures, plus a small builder for attaching hints, structured context,
// and process exit codes to any error.
package errors

import (
	"os/exec"

	"github.com/cockroachdb/errors"
)

// Application errors: bad configuration, raised synchronously at setup time.
var (
	ErrAlreadyExistingSource  = errors.New("source already exists")
	ErrReferenceToMissingSource = errors.New("reference to missing source")
	ErrScopeCycle             = errors.New("scope reference cycle")
	ErrUnknownSource          = errors.New("unknown source")
	ErrUnknownScope           = errors.New("unknown scope")
)

// User errors: encountered while answering a query.
var (
	ErrUndefinedVar       = errors.New("undefined variable")
	ErrInvalidVarName     = errors.New("invalid variable name")
	ErrMaxRecursionDepth  = errors.New("maximum recursion depth exceeded")
)

// Template rendering errors.
var (
	ErrTemplateRenderingError         = errors.New("template rendering error")
	ErrTemplateRenderingCircularValue = errors.New("circular template reference")
	ErrTemplateEngineError            = errors.New("template engine error")
	ErrTemplateValueError             = errors.New("template value error")
	ErrTemplateKeyError               = errors.New("template key error")
	ErrInvalidTemplateVarName         = errors.New("invalid template variable name")
)

// Expander parse errors.
var (
	ErrMissingClosingBrace  = errors.New("missing closing brace")
	ErrMissingEscapedChar   = errors.New("missing escaped character")
	ErrBadSubstitution      = errors.New("bad substitution")
	ErrOperandExpected      = errors.New("operand expected")
	ErrNegativeSubstring    = errors.New("negative substring expression")
	ErrUnboundVariable      = errors.New("unbound variable")
	ErrParameterNullOrNotSet = errors.New("parameter null or not set")
)

// Is reports whether err matches target anywhere in its chain. Re-exported
// so callers never need to import cockroachdb/errors themselves.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// SafeDetails returns the safe-detail strings of every layer in err's chain,
// outermost first; these include the "key=value ..." strings attached via
// ErrorBuilder.WithContext, one per call site in the chain.
func SafeDetails(err error) []string {
	var out []string
	for _, payload := range errors.GetAllSafeDetails(err) {
		out = append(out, payload.SafeDetails...)
	}
	return out
}

// GetHints returns every hint attached via ErrorBuilder.WithHint/WithHintf
// anywhere in err's chain.
func GetHints(err error) []string {
	return errors.GetAllHints(err)
}

// New mirrors errors.New, kept here so callers building their own domain
// errors stay within this package's error type.
func New(msg string) error { return errors.New(msg) }

// Wrap mirrors errors.Wrap.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// Wrapf mirrors errors.Wrapf.
func Wrapf(err error, format string, args ...any) error { return errors.Wrapf(err, format, args...) }

type exitCodeErr struct {
	cause error
	code  int
}

func (e *exitCodeErr) Error() string { return e.cause.Error() }
func (e *exitCodeErr) Unwrap() error { return e.cause }

// WithExitCode annotates err with a process exit code. GetExitCode reads it
// back, preferring the outermost annotation found while walking the chain.
func WithExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &exitCodeErr{cause: err, code: code}
}

// GetExitCode extracts the exit code previously attached with WithExitCode,
// or recovers one from an *exec.ExitError in the chain. Plain errors with no
// annotation default to 1; nil returns 0.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if ec, ok := cur.(*exitCodeErr); ok {
			return ec.code
		}
		if exitErr, ok := cur.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
	}

	return 1
}
