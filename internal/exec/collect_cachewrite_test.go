package exec

import (
	"testing"

	"github.com/stretchr/testify/require"

	selection "github.com/gqlpipe/gqlpipe/internal/selection"
)

func TestCacheWriteCollector_MissingProvenance(t *testing.T) {
	sels := []selection.Selection{stringField("a")}
	grouping := NewFieldGrouping()
	obj := FromMap(map[string]any{"a": "x"}) // no fulfilled set recorded

	err := CacheWriteCollector{}.Collect(sels, grouping, obj, &Context{})
	require.ErrorIs(t, err, ErrFulfilledFragmentsMissing)
	require.Zero(t, grouping.Len())
}

func TestCacheWriteCollector_ConditionalNullability(t *testing.T) {
	nonNullable := &selection.Field{Name: "req", Type: selection.NonNullType(selection.NamedType("String"))}
	nullable := &selection.Field{Name: "opt", Type: selection.NamedType("String")}
	sels := []selection.Selection{
		&selection.Conditional{
			Conditions: []selection.VariableCondition{{Variable: "flag"}},
			Selections: []selection.Selection{nonNullable, nullable},
		},
	}

	collect := func(data map[string]any) *FieldGrouping {
		obj := FromMap(data)
		obj.Fulfilled = FulfilledSet{}
		grouping := NewFieldGrouping()
		// Variables are deliberately empty: the cache-write strategy
		// ignores variable gating entirely.
		require.NoError(t, CacheWriteCollector{}.Collect(sels, grouping, obj, &Context{}))
		return grouping
	}

	t.Run("absent non-nullable field is excluded", func(t *testing.T) {
		grouping := collect(map[string]any{})
		require.Equal(t, 1, grouping.Len())
		require.Equal(t, "opt", grouping.Ordered()[0].ResponseKey)
	})

	t.Run("null non-nullable field is excluded", func(t *testing.T) {
		grouping := collect(map[string]any{"req": nil})
		require.Equal(t, 1, grouping.Len())
		require.Equal(t, "opt", grouping.Ordered()[0].ResponseKey)
	})

	t.Run("present non-nullable field is included", func(t *testing.T) {
		grouping := collect(map[string]any{"req": "value"})
		require.Equal(t, 2, grouping.Len())
		require.Equal(t, "req", grouping.Ordered()[0].ResponseKey)
	})

	t.Run("nullable field is included regardless of presence", func(t *testing.T) {
		grouping := collect(map[string]any{})
		require.Equal(t, "opt", grouping.Ordered()[grouping.Len()-1].ResponseKey)
	})
}

func TestCacheWriteCollector_FragmentsGatedOnRecordedSet(t *testing.T) {
	spread := &selection.FragmentSpread{Name: "Details", Selections: []selection.Selection{stringField("detail")}}
	inline := &selection.InlineFragment{TypeCondition: "Droid", Selections: []selection.Selection{stringField("fn")}}
	sels := []selection.Selection{stringField("name"), spread, inline}

	t.Run("unrecorded fragments are skipped", func(t *testing.T) {
		obj := FromMap(map[string]any{"name": "R2-D2"})
		obj.Fulfilled = FulfilledSet{}
		grouping := NewFieldGrouping()
		require.NoError(t, CacheWriteCollector{}.Collect(sels, grouping, obj, &Context{}))
		require.Equal(t, 1, grouping.Len())
	})

	t.Run("recorded fragments are descended without re-evaluation", func(t *testing.T) {
		// No __typename on the object: runtime type matching would fail,
		// but the recorded set alone decides.
		obj := FromMap(map[string]any{"name": "R2-D2", "detail": "d", "fn": "astromech"})
		obj.Fulfilled = FulfilledSet{"Details": {}, "Droid": {}}
		grouping := NewFieldGrouping()
		require.NoError(t, CacheWriteCollector{}.Collect(sels, grouping, obj, &Context{}))
		require.Equal(t, 3, grouping.Len())
		require.True(t, grouping.Fulfilled().Contains("Details"))
		require.True(t, grouping.Fulfilled().Contains("Droid"))
	})
}

func TestCacheWriteCollector_ConditionalResetsInsideFragments(t *testing.T) {
	// A field inside a fragment under a conditional: the fragment resets
	// treat-as-conditional, so the non-nullable field is written even
	// when absent.
	inner := &selection.Field{Name: "req", Type: selection.NonNullType(selection.NamedType("String"))}
	sels := []selection.Selection{
		&selection.Conditional{
			Conditions: []selection.VariableCondition{{Variable: "flag"}},
			Selections: []selection.Selection{
				&selection.FragmentSpread{Name: "F", Selections: []selection.Selection{inner}},
			},
		},
	}
	obj := FromMap(map[string]any{})
	obj.Fulfilled = FulfilledSet{"F": {}}
	grouping := NewFieldGrouping()
	require.NoError(t, CacheWriteCollector{}.Collect(sels, grouping, obj, &Context{}))
	require.Equal(t, 1, grouping.Len())
	require.Equal(t, "req", grouping.Ordered()[0].ResponseKey)
}
