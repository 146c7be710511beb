package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSatisfies(t *testing.T) {
	reg := New(
		&Type{Name: "Human", Kind: TypeKindObject, Implements: []string{"Character"}},
		&Type{Name: "Droid", Kind: TypeKindObject, Implements: []string{"Character"}},
		&Type{Name: "Character", Kind: TypeKindInterface, PossibleTypes: []string{"Human", "Droid"}},
		&Type{Name: "SearchResult", Kind: TypeKindUnion, PossibleTypes: []string{"Human", "Starship"}},
		&Type{Name: "Starship", Kind: TypeKindObject},
	)

	cases := []struct {
		runtimeType string
		condition   string
		want        bool
	}{
		{"Human", "Human", true},
		{"Human", "Character", true},   // declared interface
		{"Droid", "Character", true},   // possible-type membership
		{"Starship", "Character", false},
		{"Human", "SearchResult", true}, // union member
		{"Droid", "SearchResult", false},
		{"Human", "", true}, // empty condition always applies
		{"Unknown", "Character", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, reg.Satisfies(tc.runtimeType, tc.condition),
			"Satisfies(%q, %q)", tc.runtimeType, tc.condition)
	}
}

func TestSatisfies_NilRegistry(t *testing.T) {
	var reg *Registry
	require.True(t, reg.Satisfies("Human", "Human"))
	require.True(t, reg.Satisfies("Human", ""))
	require.False(t, reg.Satisfies("Human", "Character"))
}

func TestFromSDL(t *testing.T) {
	reg, err := FromSDL("schema.graphql", `
		type Query { hero: Character }
		interface Character { id: ID! }
		type Human implements Character { id: ID! }
		type Droid implements Character { id: ID! }
		union Actor = Human | Droid
		enum Episode { NEWHOPE EMPIRE JEDI }
	`)
	require.NoError(t, err)
	require.NotNil(t, reg.Source())

	human := reg.Lookup("Human")
	require.NotNil(t, human)
	require.Equal(t, TypeKindObject, human.Kind)
	require.Contains(t, human.Implements, "Character")

	character := reg.Lookup("Character")
	require.Equal(t, TypeKindInterface, character.Kind)
	require.ElementsMatch(t, []string{"Human", "Droid"}, character.PossibleTypes)

	actor := reg.Lookup("Actor")
	require.Equal(t, TypeKindUnion, actor.Kind)
	require.ElementsMatch(t, []string{"Human", "Droid"}, actor.PossibleTypes)

	require.Equal(t, TypeKindEnum, reg.Lookup("Episode").Kind)

	require.True(t, reg.Satisfies("Droid", "Actor"))
	require.True(t, reg.Satisfies("Human", "Character"))
}

func TestFromSDL_InvalidSchema(t *testing.T) {
	_, err := FromSDL("broken.graphql", `type Query { hero: Missing }`)
	require.Error(t, err)
}

func TestNew_NoSource(t *testing.T) {
	reg := New(&Type{Name: "Query", Kind: TypeKindObject})
	require.Nil(t, reg.Source())
	require.NotNil(t, reg.Lookup("Query"))
	require.Nil(t, reg.Lookup("Absent"))
}
