package render

import (
	"strings"

	varerrors "github.com/nimbusconf/varstore/errors"
	"github.com/nimbusconf/varstore/pkg/schema"
)

// queryContext is the per-top-level-call state threaded through a render
// and all of its recursive child renders: the resolved settings, the shared
// debug report, the current recursion depth, and path, the keys from the
// top-level key down to this frame, used for cycle detection.
type queryContext struct {
	settings schema.Settings
	report   *schema.Report
	depth    int
	path     []string
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func cycleErr(chain []string, key string) error {
	path := make([]string, 0, len(chain)+1)
	path = append(path, chain...)
	path = append(path, key)
	return varerrors.Build(varerrors.ErrTemplateRenderingCircularValue).
		WithContext("path", strings.Join(path, " -> ")).
		WithHint("a value referenced itself through one or more intermediate keys").
		Err()
}

func depthErr(key string, max int) error {
	return varerrors.Build(varerrors.ErrMaxRecursionDepth).
		WithContext("key", key).
		WithHintf("recursion exceeded the configured ceiling of %d", max).
		Err()
}
