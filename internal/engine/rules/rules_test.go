package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baseline/internal/core/errors"
	"baseline/internal/engine/detector"
)

func TestBuiltinCatalog(t *testing.T) {
	c := BuiltinCatalog()
	require.Equal(t, len(Builtin()), c.Len())

	ids := make([]string, 0, c.Len())
	for _, r := range c.Rules() {
		ids = append(ids, r.ID)
		assert.True(t, r.Builtin)
		assert.NotEmpty(t, r.Checks(), r.ID)
	}
	assert.IsIncreasing(t, ids)

	at, ok := c.Get("array-at")
	require.True(t, ok)
	assert.Equal(t, "array-at", at.FeatureID())
	assert.Equal(t, "Array.prototype.at()", at.Descriptor.Concern())
	assert.Equal(t, "ArrayConstructor", at.Target.Constructor)

	buf, ok := c.Get("arraybuffer-resizable")
	require.True(t, ok)
	assert.Equal(t, detector.SpecArgumentHasProperty, buf.Specs[0].Kind())
}

func TestCatalog_RejectsDuplicates(t *testing.T) {
	r := Builtin()[0]
	_, err := NewCatalog(r, r)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
}

func TestCatalog_MergeAndSelect(t *testing.T) {
	custom, err := Compile(Definition{
		ID:      "array-at",
		Concern: "at() on arrays",
		Global:  "Array",
		Newly:   "2022-03-14",
		Matches: []MatchDefinition{{Kind: "instance_member", Member: "at"}},
	})
	require.NoError(t, err)

	merged, err := BuiltinCatalog().Merge(custom)
	require.NoError(t, err)
	assert.Equal(t, BuiltinCatalog().Len(), merged.Len())
	got, _ := merged.Get("array-at")
	assert.False(t, got.Builtin)
	assert.Equal(t, "at() on arrays", got.Descriptor.Concern())

	sel, err := merged.Select("array-at", "weakref")
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Len())

	_, err = merged.Select("nope")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr bool
		check   func(t *testing.T, r Rule)
	}{
		{
			name: "defaults",
			def: Definition{
				ID:      "set-union",
				Global:  "Set",
				Newly:   "2024-06-11",
				Matches: []MatchDefinition{{Kind: "instance_member", Member: "union"}},
			},
			check: func(t *testing.T, r Rule) {
				assert.Equal(t, "set-union", r.FeatureID())
				assert.Equal(t, "set-union", r.Descriptor.Concern())
				assert.Equal(t, detector.Target{Global: "Set", Instance: "Set", Constructor: "SetConstructor"}, r.Target)
				assert.Equal(t, "2024-06-11", r.Descriptor.NewlyAvailableDate().String())
			},
		},
		{
			name: "argument pattern",
			def: Definition{
				ID:         "string-split-regex",
				FeatureIDs: []string{"split-regex"},
				Global:     "String",
				Matches: []MatchDefinition{{
					Kind: "argument_matches_pattern", Call: "instance_member", Member: "split",
					ArgIndex: 0, Pattern: "^[a-z]+$",
				}},
			},
			check: func(t *testing.T, r Rule) {
				require.Len(t, r.Specs, 1)
				spec := r.Specs[0]
				assert.Equal(t, detector.SpecArgumentMatchesPattern, spec.Kind())
				call, ok := spec.Call()
				require.True(t, ok)
				assert.Equal(t, "split", call.Name())
				assert.True(t, spec.Pattern().MatchString("abc"))
			},
		},
		{
			name: "constructor argument",
			def: Definition{
				ID:      "error-options",
				Global:  "Error",
				Matches: []MatchDefinition{{Kind: "argument_exists", Call: "constructor", DetectBareCall: true, ArgIndex: 1}},
			},
			check: func(t *testing.T, r Rule) {
				call, _ := r.Specs[0].Call()
				assert.Equal(t, detector.SpecConstructor, call.Kind())
				assert.True(t, call.DetectBareCall())
			},
		},
		{name: "missing id", def: Definition{Global: "Array"}, wantErr: true},
		{name: "no matches", def: Definition{ID: "x", Global: "Array"}, wantErr: true},
		{
			name:    "unknown kind",
			def:     Definition{ID: "x", Global: "Array", Matches: []MatchDefinition{{Kind: "prototype_member", Member: "at"}}},
			wantErr: true,
		},
		{
			name:    "argument without call",
			def:     Definition{ID: "x", Global: "Array", Matches: []MatchDefinition{{Kind: "argument_exists", ArgIndex: 0}}},
			wantErr: true,
		},
		{
			name: "bad pattern",
			def: Definition{ID: "x", Global: "String", Matches: []MatchDefinition{{
				Kind: "argument_matches_pattern", Call: "instance_member", Member: "split", Pattern: "(",
			}}},
			wantErr: true,
		},
		{
			name:    "bad date",
			def:     Definition{ID: "x", Global: "Array", Newly: "soon", Matches: []MatchDefinition{{Kind: "instance_member", Member: "at"}}},
			wantErr: true,
		},
		{
			name:    "member without name",
			def:     Definition{ID: "x", Global: "Array", Matches: []MatchDefinition{{Kind: "instance_member"}}},
			wantErr: true,
		},
		{
			name: "widely before newly",
			def: Definition{ID: "x", Global: "Array", Newly: "2024-01-01", Widely: "2023-01-01",
				Matches: []MatchDefinition{{Kind: "instance_member", Member: "at"}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compile(tt.def)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.CodeConfiguration), err.Error())
				return
			}
			require.NoError(t, err)
			tt.check(t, r)
		})
	}
}
