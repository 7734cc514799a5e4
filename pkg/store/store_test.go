package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	varerrors "github.com/nimbusconf/varstore/errors"
	"github.com/nimbusconf/varstore/pkg/schema"
	"github.com/nimbusconf/varstore/pkg/store"
)

func TestAddSources_RejectsDuplicateNameWithoutForce(t *testing.T) {
	s := store.New()
	require.NoError(t, s.AddSources(false, schema.NewSource("cli", 100, "")))

	err := s.AddSources(false, schema.NewSource("cli", 200, ""))
	require.Error(t, err)
	assert.True(t, varerrors.Is(err, varerrors.ErrAlreadyExistingSource))

	require.NoError(t, s.AddSources(true, schema.NewSource("cli", 200, "")))
	sources, err := s.GetOrderedSources("")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, 200, sources[0].EffectiveLevel())
}

func TestGetOrderedSources_StableSortByLevelThenInsertion(t *testing.T) {
	s := store.New()
	require.NoError(t, s.AddSources(false,
		schema.NewSource("b", 100, ""),
		schema.NewSource("a", 100, ""),
		schema.NewSource("z", 50, ""),
	))

	sources, err := s.GetOrderedSources("")
	require.NoError(t, err)

	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name
	}
	assert.Equal(t, []string{"z", "b", "a"}, names)
}

func TestGetOrderedSources_UnknownScope(t *testing.T) {
	s := store.New()
	_, err := s.GetOrderedSources("nope")
	require.Error(t, err)
	assert.True(t, varerrors.Is(err, varerrors.ErrUnknownScope))
}

func TestSetScopes_PreservesDeclaredOrderAndComposesScopes(t *testing.T) {
	s := store.New()
	require.NoError(t, s.AddSources(false,
		schema.NewSource("app_cli", 300, ""),
		schema.NewSource("project_env", 300, ""),
	))
	require.NoError(t, s.SetScopes(map[string][]string{
		"scope_app":     {"app_cli"},
		"scope_project": {"project_env", "scope_app"},
	}))

	sources, err := s.GetOrderedSources("scope_project")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "project_env", sources[0].Name)
	assert.Equal(t, "app_cli", sources[1].Name)
}

func TestSetScopes_MissingReferenceDoesNotMutateStore(t *testing.T) {
	s := store.New()
	require.NoError(t, s.AddSources(false, schema.NewSource("a", 100, "")))
	require.NoError(t, s.SetScopes(map[string][]string{"ok": {"a"}}))

	err := s.SetScopes(map[string][]string{"broken": {"does_not_exist"}})
	require.Error(t, err)
	assert.True(t, varerrors.Is(err, varerrors.ErrReferenceToMissingSource))

	_, err = s.GetOrderedSources("broken")
	require.Error(t, err)
	assert.True(t, varerrors.Is(err, varerrors.ErrUnknownScope))

	_, err = s.GetOrderedSources("ok")
	require.NoError(t, err)
}

func TestSetScopes_CycleDoesNotMutateStore(t *testing.T) {
	s := store.New()
	require.NoError(t, s.AddSources(false, schema.NewSource("a", 100, "")))
	require.NoError(t, s.SetScopes(map[string][]string{"ok": {"a"}}))

	err := s.SetScopes(map[string][]string{
		"x": {"y"},
		"y": {"x"},
	})
	require.Error(t, err)
	assert.True(t, varerrors.Is(err, varerrors.ErrScopeCycle))

	_, err = s.GetOrderedSources("x")
	require.Error(t, err)
	assert.True(t, varerrors.Is(err, varerrors.ErrUnknownScope))
}

func TestSetScopes_SelfReferenceIsACycle(t *testing.T) {
	s := store.New()
	err := s.SetScopes(map[string][]string{"loop": {"loop"}})
	require.Error(t, err)
	assert.True(t, varerrors.Is(err, varerrors.ErrScopeCycle))
}

func TestSetLayer_UnknownSource(t *testing.T) {
	s := store.New()
	err := s.SetLayer("missing", nil, nil)
	require.Error(t, err)
	assert.True(t, varerrors.Is(err, varerrors.ErrUnknownSource))
}

func TestGetValue_FirstMatchWins(t *testing.T) {
	s := store.New()
	require.NoError(t, s.AddSources(false,
		schema.NewSource("high", 100, ""),
		schema.NewSource("low", 200, ""),
	))
	require.NoError(t, s.SetLayer("high", map[string]any{"k": "from-high"}, nil))
	require.NoError(t, s.SetLayer("low", map[string]any{"k": "from-low", "only_low": "x"}, nil))

	v, err := s.GetValue("k", "")
	require.NoError(t, err)
	assert.Equal(t, "from-high", v)

	v, err = s.GetValue("only_low", "")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	_, err = s.GetValue("nope", "")
	require.Error(t, err)
	assert.True(t, varerrors.Is(err, varerrors.ErrUndefinedVar))
}

func TestGetVarNames_UnionAcrossLayers(t *testing.T) {
	s := store.New()
	require.NoError(t, s.AddSources(false,
		schema.NewSource("a", 100, ""),
		schema.NewSource("b", 200, ""),
	))
	require.NoError(t, s.SetLayer("a", map[string]any{"x": 1, "y": 2}, nil))
	require.NoError(t, s.SetLayer("b", map[string]any{"y": 3, "z": 4}, nil))

	names, err := s.GetVarNames("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y", "z"}, names)
}

func TestInspectVar_ReturnsEveryLayerInPriorityOrder(t *testing.T) {
	s := store.New()
	require.NoError(t, s.AddSources(false,
		schema.NewSource("a", 100, ""),
		schema.NewSource("b", 200, ""),
	))
	require.NoError(t, s.SetLayer("a", map[string]any{"k": "from-a"}, nil))
	require.NoError(t, s.SetLayer("b", map[string]any{"k": "from-b"}, nil))

	provenance, err := s.InspectVar("k", "")
	require.NoError(t, err)
	require.Len(t, provenance, 2)
	assert.Equal(t, "a", provenance[0].Source)
	assert.Equal(t, "b", provenance[1].Source)
}
