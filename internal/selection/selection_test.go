package selection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldResponseKey(t *testing.T) {
	require.Equal(t, "name", (&Field{Name: "name"}).ResponseKey())
	require.Equal(t, "heroName", (&Field{Name: "name", Alias: "heroName"}).ResponseKey())
}

func TestVariableConditionEvaluate(t *testing.T) {
	cases := []struct {
		name      string
		cond      VariableCondition
		variables map[string]any
		want      bool
	}{
		{"true include", VariableCondition{Variable: "v"}, map[string]any{"v": true}, true},
		{"false include", VariableCondition{Variable: "v"}, map[string]any{"v": false}, false},
		{"true skip", VariableCondition{Variable: "v", Inverted: true}, map[string]any{"v": true}, false},
		{"false skip", VariableCondition{Variable: "v", Inverted: true}, map[string]any{"v": false}, true},
		{"absent variable", VariableCondition{Variable: "v"}, map[string]any{}, false},
		{"absent inverted", VariableCondition{Variable: "v", Inverted: true}, map[string]any{}, true},
		{"non-boolean value", VariableCondition{Variable: "v"}, map[string]any{"v": "yes"}, false},
		{"nil variables", VariableCondition{Variable: "v"}, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.cond.Evaluate(tc.variables))
		})
	}
}

func TestFragmentIdentity(t *testing.T) {
	require.Equal(t, "Details", (&FragmentSpread{Name: "Details"}).FragmentIdentity())
	require.Equal(t, "Droid", (&InlineFragment{TypeCondition: "Droid"}).FragmentIdentity())
}

func TestTypeRef(t *testing.T) {
	ref := NonNullType(ListType(NonNullType(NamedType("Character"))))

	require.True(t, ref.IsNonNull())
	require.True(t, ref.IsList(), "non-null wrapping is looked through")
	require.True(t, ref.Unwrap().IsList())
	require.Equal(t, "Character", ref.NamedTypeName())

	elem := ref.Unwrap().Unwrap()
	require.True(t, elem.IsNonNull())
	require.Equal(t, "Character", elem.Unwrap().Named)
}
