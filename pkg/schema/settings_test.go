package schema_test

import (
	"testing"

	"dario.cat/mergo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusconf/varstore/pkg/schema"
)

func TestDefaultSettings_MatchesSpecTable(t *testing.T) {
	d := schema.DefaultSettings()

	assert.Equal(t, schema.ModeReturnRaw, d.OnTemplatingError.Mode)
	assert.Equal(t, schema.ModeRaise, d.OnUndefinedError.Mode)
	assert.Equal(t, schema.ModeReturnRaw, d.OnUndefinedTemplateError.Mode)
	assert.True(t, d.TemplateEnabled())
	assert.False(t, d.DebugEnabled())
	assert.True(t, d.CacheEnabled())
}

func TestErrorPolicy_Resolve(t *testing.T) {
	raw := "${unchanged}"

	_, raise := schema.Raise().Resolve("k", assert.AnError, nil, raw)
	assert.True(t, raise)

	val, raise := schema.ReturnRaw().Resolve("k", assert.AnError, nil, raw)
	assert.False(t, raise)
	assert.Equal(t, raw, val)

	val, raise = schema.UseLiteral("fallback").Resolve("k", assert.AnError, nil, raw)
	assert.False(t, raise)
	assert.Equal(t, "fallback", val)

	val, raise = schema.UseFunc(func(key string, err error, report *schema.Report) string {
		return "handled:" + key
	}).Resolve("k", assert.AnError, nil, raw)
	assert.False(t, raise)
	assert.Equal(t, "handled:k", val)
}

func TestErrorPolicy_CallableWithNilFuncRaises(t *testing.T) {
	_, raise := schema.UseFunc(nil).Resolve("k", assert.AnError, nil, "")
	assert.True(t, raise)
}

// TestSettingsMerge_OnlyExplicitFieldsOverride exercises the mergo.WithOverride
// merge the Renderer performs (the Renderer also passes mergo.WithoutDereference)
// between DefaultSettings() and a caller-supplied override: a zero-value
// ErrorPolicy or nil *bool in the override must not clobber the default it's
// merged onto.
func TestSettingsMerge_OnlyExplicitFieldsOverride(t *testing.T) {
	merged := schema.DefaultSettings()
	override := schema.Settings{}.WithDebug(true)

	require.NoError(t, mergo.Merge(&merged, override, mergo.WithOverride))

	assert.True(t, merged.DebugEnabled())
	assert.True(t, merged.CacheEnabled(), "cache default must survive an override that doesn't mention it")
	assert.Equal(t, schema.ModeRaise, merged.OnUndefinedError.Mode, "undefined-error default must survive")
}

func TestSettingsMerge_ExplicitPolicyWins(t *testing.T) {
	merged := schema.DefaultSettings()
	override := schema.Settings{OnUndefinedError: schema.UseLiteral("<missing>")}

	require.NoError(t, mergo.Merge(&merged, override, mergo.WithOverride))

	assert.Equal(t, schema.ModeLiteral, merged.OnUndefinedError.Mode)
	assert.Equal(t, "<missing>", merged.OnUndefinedError.Literal)
}
