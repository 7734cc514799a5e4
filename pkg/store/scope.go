package store

import (
	"strings"

	varerrors "github.com/nimbusconf/varstore/errors"
	"github.com/nimbusconf/varstore/pkg/schema"
)

// resolveScope flattens a single scope's ordered references into Source
// values via an explicit DFS path stack. path holds the chain of scope
// names currently being expanded, used only to detect cycles (self-loops
// included); it is never retained after resolution.
func resolveScope(name string, defs map[string][]string, sources map[string]schema.Source, path []string) ([]schema.Source, error) {
	here := make([]string, len(path)+1)
	copy(here, path)
	here[len(path)] = name

	refs := defs[name]
	out := make([]schema.Source, 0, len(refs))

	for _, ref := range refs {
		if src, ok := sources[ref]; ok {
			out = append(out, src)
			continue
		}

		if _, ok := defs[ref]; ok {
			if contains(here, ref) {
				return nil, scopeCycleErr(append(here, ref))
			}
			sub, err := resolveScope(ref, defs, sources, here)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}

		return nil, varerrors.Build(varerrors.ErrReferenceToMissingSource).
			WithContext("scope", name).
			WithContext("reference", ref).
			Err()
	}

	return out, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func scopeCycleErr(path []string) error {
	return varerrors.Build(varerrors.ErrScopeCycle).
		WithContext("path", strings.Join(path, " -> ")).
		WithHint("scope references must form a DAG; remove the back-reference that closes the loop").
		Err()
}
