package schema

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Report is the mutable debug record attached to a top-level render call. It
// accumulates the key chain walked during resolution plus a warning for
// each templating error handled by a non-raising policy (undefined lookups
// recovered by policy are not recorded), and is returned to the caller alongside
// the rendered value when Settings.Debug is true.
type Report struct {
	// ID correlates this report with log lines emitted for the same call.
	ID string
	// Key is the top-level key the caller asked to render.
	Key string
	// Scope is the scope name the render was bound to.
	Scope string
	// Chain is the ordered list of keys visited, root first.
	Chain []string
	// Templated is true if expansion was actually attempted (as opposed to
	// a passthrough for a non-string or Settings.Template=false).
	Templated bool
	// Warnings holds one line per templating error recovered while
	// honoring a non-raising policy; recovered undefined variables add none.
	Warnings []string
}

// NewReport starts a report for a fresh top-level render call.
func NewReport(id, key, scope string) *Report {
	return &Report{ID: id, Key: key, Scope: scope, Chain: []string{key}}
}

// Push appends a key to the chain, tracking the recursion path for cycle
// detection and for the human-readable report.
func (r *Report) Push(key string) {
	if r == nil {
		return
	}
	r.Chain = append(r.Chain, key)
}

// Warn records a recovered error.
func (r *Report) Warn(msg string) {
	if r == nil {
		return
	}
	r.Warnings = append(r.Warnings, msg)
}

// String renders a human-readable summary of the report. Color is applied
// only when the destination is a terminal (color.NoColor, set by the
// fatih/color package from the surrounding process environment).
func (r *Report) String() string {
	if r == nil {
		return ""
	}

	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (scope=%s)\n", bold("render:"), r.Key, r.Scope)
	fmt.Fprintf(&b, "  chain: %s\n", strings.Join(r.Chain, " -> "))
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "  %s %s\n", yellow("warning:"), w)
	}
	return b.String()
}
