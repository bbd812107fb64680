package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baseline/internal/core/errors"
	"baseline/internal/engine/availability"
	"baseline/internal/engine/parser"
	"baseline/internal/engine/rules"
)

const fixture = `const xs = [1, 2];
xs.at(-1);
"abc".replaceAll("a", "b");
const buf = new ArrayBuffer(8, { maxByteLength: 16 });
Object.hasOwn(buf, "x");
const ref = new WeakRef(buf);
const o = { at() {} };
o.at();
`

func parseFixture(t *testing.T, path, src string) *parser.File {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	file, err := parser.NewParser(loader).ParseFile(path, []byte(src))
	require.NoError(t, err)
	return file
}

func policy(asOf string, tier availability.SupportTier) availability.RuleConfig {
	return availability.RuleConfig{AsOf: availability.MustParseDate(asOf), SupportTier: tier}
}

func ruleIDs(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.RuleID
	}
	return out
}

func TestLint_ReportsUnavailableFeatures(t *testing.T) {
	l, err := New(rules.BuiltinCatalog(), policy("2023-01-01", availability.Widely))
	require.NoError(t, err)

	diags, err := l.Lint(parseFixture(t, "app.js", fixture))
	require.NoError(t, err)
	assert.Equal(t, []string{"array-at", "string-replaceall", "arraybuffer-resizable", "object-hasown", "weakref"}, ruleIDs(diags))

	first := diags[0]
	assert.Equal(t, "app.js", first.Path)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 1, first.Column)
	assert.Equal(t, "array-at", first.FeatureID)
	assert.Equal(t, "Array.prototype.at() is not Baseline widely available as of 2023-01-01", first.Message)
	assert.Contains(t, first.Docs, "Array/at")
	assert.Equal(t, availability.Widely, first.Tier)
}

func TestLint_NewlyTierAllowsOlderFeatures(t *testing.T) {
	l, err := New(rules.BuiltinCatalog(), policy("2023-01-01", availability.Newly))
	require.NoError(t, err)

	diags, err := l.Lint(parseFixture(t, "app.js", fixture))
	require.NoError(t, err)
	assert.Equal(t, []string{"arraybuffer-resizable"}, ruleIDs(diags))
}

func TestLint_Overrides(t *testing.T) {
	off := false
	newly := availability.Newly
	cfg := policy("2023-01-01", availability.Widely)
	cfg.Overrides = map[string]availability.Override{
		"array-at":        {Enabled: &off},
		"weak-references": {SupportTier: &newly},
	}
	l, err := New(rules.BuiltinCatalog(), cfg, WithMessage("{concern} needs {supportTier} support by {asOf}"))
	require.NoError(t, err)

	diags, err := l.Lint(parseFixture(t, "app.js", fixture))
	require.NoError(t, err)
	assert.Equal(t, []string{"string-replaceall", "arraybuffer-resizable", "object-hasown"}, ruleIDs(diags))
	assert.Equal(t, "String.prototype.replaceAll() needs widely support by 2023-01-01", diags[0].Message)

	for _, st := range l.Status() {
		if st.Rule.ID == "array-at" {
			assert.False(t, st.Decision.Enabled)
		}
	}
}

func TestLint_Subclasses(t *testing.T) {
	src := `class Stack extends Array {
  last() { return this.at(-1); }
}
class Ref extends WeakRef {}
new Ref({});
new Ref({});
`
	l, err := New(rules.BuiltinCatalog(), policy("2023-01-01", availability.Widely))
	require.NoError(t, err)

	diags, err := l.Lint(parseFixture(t, "stack.js", src))
	require.NoError(t, err)
	require.Equal(t, []string{"array-at", "weakref"}, ruleIDs(diags))
	assert.Equal(t, 2, diags[0].Line)
	assert.Equal(t, 4, diags[1].Line)
}

func TestLint_RuleMessageWins(t *testing.T) {
	r, err := rules.Compile(rules.Definition{
		ID:      "set-union",
		Concern: "Set.prototype.union()",
		Global:  "Set",
		Newly:   "2024-06-11",
		Message: "avoid {concern} before {asOf}",
		Matches: []rules.MatchDefinition{{Kind: "instance_member", Member: "union"}},
	})
	require.NoError(t, err)
	catalog, err := rules.NewCatalog(r)
	require.NoError(t, err)

	l, err := New(catalog, policy("2024-01-01", availability.Newly), WithMessage("ignored"))
	require.NoError(t, err)
	require.Len(t, l.Active(), 1)

	diags, err := l.Lint(parseFixture(t, "sets.ts", "const a: Set<number> = new Set();\na.union(new Set());\n"))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "avoid Set.prototype.union() before 2024-01-01", diags[0].Message)
}

func TestNew_InvalidPolicy(t *testing.T) {
	_, err := New(rules.BuiltinCatalog(), availability.RuleConfig{SupportTier: availability.Widely})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
}

func TestFormat(t *testing.T) {
	got := Format("{concern}/{asOf}/{supportTier}/{other}", "X", availability.MustParseDate("2024-02-29"), availability.Newly)
	assert.Equal(t, "X/2024-02-29/newly/{other}", got)
}
