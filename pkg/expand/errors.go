package expand

import (
	"fmt"

	varerrors "github.com/nimbusconf/varstore/errors"
)

// ParseError reports a grammar failure together with the fragment of the
// template that triggered it.
type ParseError struct {
	Err      error
	Fragment string
	Detail   string
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Fragment, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Fragment, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseErr(sentinel error, fragment string) error {
	return &ParseError{Err: sentinel, Fragment: fragment}
}

func newParseErrDetail(sentinel error, fragment, detail string) error {
	return &ParseError{Err: sentinel, Fragment: fragment, Detail: detail}
}

// ParameterError reports a "?msg" strict-modifier failure: the referenced
// variable is unset or empty, the template demands it be bound, and no
// RecoverNull fallback is configured.
type ParameterError struct {
	Name string
	Msg  string
}

func (e *ParameterError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Name, varerrors.ErrParameterNullOrNotSet)
}

func (e *ParameterError) Unwrap() error { return varerrors.ErrParameterNullOrNotSet }

func newParamErr(name, msg string) error {
	return &ParameterError{Name: name, Msg: msg}
}
