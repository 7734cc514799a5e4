package errors

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder accumulates hints, structured context, and an optional exit
// code before producing a final error. Zero value is not usable; construct
// with Build.
type ErrorBuilder struct {
	err      error
	hints    []string
	context  map[string]string
	exitCode *int
}

// Build starts a new ErrorBuilder wrapping err. Build(nil) is allowed and
// yields a builder whose Err() always returns nil, so call sites can chain
// unconditionally around a possibly-nil error.
func Build(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err, context: map[string]string{}}
}

// WithHint attaches a human-readable suggestion to the error.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.hints = append(b.hints, hint)
	return b
}

// WithHintf attaches a formatted hint.
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	return b.WithHint(errors.Newf(format, args...).Error())
}

// WithContext attaches a structured key/value pair, surfaced through
// cockroachdb/errors' safe-details mechanism.
func (b *ErrorBuilder) WithContext(key, value string) *ErrorBuilder {
	b.context[key] = value
	return b
}

// WithExitCode records the process exit code this error should map to.
func (b *ErrorBuilder) WithExitCode(code int) *ErrorBuilder {
	b.exitCode = &code
	return b
}

// Err materializes the builder into a single error, or nil if the wrapped
// error was nil.
func (b *ErrorBuilder) Err() error {
	if b.err == nil {
		return nil
	}

	err := b.err

	for _, hint := range b.hints {
		err = errors.WithHint(err, hint)
	}

	if len(b.context) > 0 {
		keys := make([]string, 0, len(b.context))
		for k := range b.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+b.context[k])
		}
		err = errors.WithSafeDetails(err, strings.Join(pairs, " "))
	}

	if b.exitCode != nil {
		err = WithExitCode(err, *b.exitCode)
	}

	return err
}
