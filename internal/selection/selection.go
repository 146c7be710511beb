package selection

// Selection is one node of a compiled query selection tree. Trees are
// produced by the compiler (or by generated operation code) and consumed
// read-only by the execution layer.
type Selection interface {
	isSelection()
}

// Field requests a single value under ResponseKey().
type Field struct {
	Name       string
	Alias      string
	Type       *TypeRef
	Arguments  map[string]any
	Selections []Selection
}

// ResponseKey returns the key under which the field's value appears in
// a response: the alias if present, the field name otherwise.
func (f *Field) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Conditional groups selections behind variable conditions compiled from
// @include/@skip. The group is descended into only when every condition
// holds against the active variables.
type Conditional struct {
	Conditions []VariableCondition
	Selections []Selection
}

// VariableRef is a symbolic reference to an operation variable inside a
// field's argument values.
type VariableRef struct {
	Name string
}

// VariableCondition is a single boolean-variable gate. Inverted marks a
// @skip condition (include when the variable is false).
type VariableCondition struct {
	Variable string
	Inverted bool
}

// Evaluate reports whether the condition holds for the given variables.
// An absent or non-boolean variable evaluates as false.
func (c VariableCondition) Evaluate(variables map[string]any) bool {
	v, _ := variables[c.Variable].(bool)
	if c.Inverted {
		return !v
	}
	return v
}

// FragmentSpread is a named fragment. Variable conditions on the spread
// are hoisted into an enclosing Conditional by the compiler, so during
// default collection a spread is always descended into.
type FragmentSpread struct {
	Name       string
	Selections []Selection
}

// InlineFragment is a type-conditioned fragment, descended into only
// when the concrete runtime type satisfies TypeCondition.
type InlineFragment struct {
	TypeCondition string
	Selections    []Selection
}

func (*Field) isSelection()          {}
func (*Conditional) isSelection()    {}
func (*FragmentSpread) isSelection() {}
func (*InlineFragment) isSelection() {}

// FragmentIdentity returns the identity recorded in a fulfilled-fragment
// set: the fragment name for spreads, the type condition for inline
// fragments.
func (f *FragmentSpread) FragmentIdentity() string { return f.Name }

// FragmentIdentity returns the identity recorded in a fulfilled-fragment
// set for this type case.
func (f *InlineFragment) FragmentIdentity() string { return f.TypeCondition }
