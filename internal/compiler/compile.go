package compiler

import (
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/gqlpipe/gqlpipe/internal/language"
	schema "github.com/gqlpipe/gqlpipe/internal/schema"
	selection "github.com/gqlpipe/gqlpipe/internal/selection"
)

// Operation is a compiled executable operation: the original document
// text (sent over the wire as-is) plus the selection tree the execution
// layer walks when parsing the response. Generated operation code
// produces the same shape ahead of time; Compile produces it at
// runtime from query text.
type Operation struct {
	Name       string
	Kind       language.Operation
	Document   string
	Selections []selection.Selection
}

// Compile binds and validates source against the registry's schema and
// lowers the requested operation into a selection tree: @include/@skip
// variable arguments become Conditional nodes, named spreads become
// FragmentSpread nodes (wrapped in an InlineFragment when the fragment's
// type condition narrows the parent type), and inline fragments keep
// their type conditions.
func Compile(reg *schema.Registry, source, operationName string) (*Operation, error) {
	if reg.Source() == nil {
		return nil, fmt.Errorf("compiler: registry carries no schema document")
	}
	doc, listErr := gqlparser.LoadQuery(reg.Source(), source)
	if listErr != nil {
		return nil, listErr
	}
	op := lookupOperation(doc, operationName)
	if op == nil {
		return nil, fmt.Errorf("compiler: operation %q not found", operationName)
	}

	c := &compiler{doc: doc}
	parentType := rootTypeName(reg.Source(), op.Operation)
	sels, err := c.compileSet(op.SelectionSet, parentType)
	if err != nil {
		return nil, err
	}
	return &Operation{
		Name:       op.Name,
		Kind:       op.Operation,
		Document:   source,
		Selections: sels,
	}, nil
}

type compiler struct {
	doc *language.QueryDocument
}

func (c *compiler) compileSet(set language.SelectionSet, parentType string) ([]selection.Selection, error) {
	out := make([]selection.Selection, 0, len(set))
	for _, sel := range set {
		compiled, err := c.compileSelection(sel, parentType)
		if err != nil {
			return nil, err
		}
		out = append(out, compiled...)
	}
	return out, nil
}

func (c *compiler) compileSelection(sel language.Selection, parentType string) ([]selection.Selection, error) {
	switch s := sel.(type) {
	case *language.Field:
		conds, excluded := compileConditions(s.Directives)
		if excluded {
			return nil, nil
		}
		if s.Definition == nil && s.Name != "__typename" {
			return nil, fmt.Errorf("compiler: field %s.%s has no bound definition", parentType, s.Name)
		}
		field := &selection.Field{
			Name:      s.Name,
			Alias:     s.Alias,
			Type:      fieldTypeRef(s),
			Arguments: compileArguments(s.Arguments),
		}
		if len(s.SelectionSet) > 0 {
			sub, err := c.compileSet(s.SelectionSet, field.Type.NamedTypeName())
			if err != nil {
				return nil, err
			}
			field.Selections = sub
		}
		return []selection.Selection{wrapConditional(field, conds)}, nil

	case *language.FragmentSpread:
		conds, excluded := compileConditions(s.Directives)
		if excluded {
			return nil, nil
		}
		def := c.doc.Fragments.ForName(s.Name)
		if def == nil {
			return nil, fmt.Errorf("compiler: fragment %q not defined", s.Name)
		}
		sub, err := c.compileSet(def.SelectionSet, def.TypeCondition)
		if err != nil {
			return nil, err
		}
		var compiled selection.Selection = &selection.FragmentSpread{Name: s.Name, Selections: sub}
		// A fragment whose type condition narrows the parent type is
		// only applicable to some runtime types; express that as an
		// enclosing type case.
		if def.TypeCondition != "" && def.TypeCondition != parentType {
			compiled = &selection.InlineFragment{
				TypeCondition: def.TypeCondition,
				Selections:    []selection.Selection{compiled},
			}
		}
		return []selection.Selection{wrapConditional(compiled, conds)}, nil

	case *language.InlineFragment:
		conds, excluded := compileConditions(s.Directives)
		if excluded {
			return nil, nil
		}
		typeCondition := s.TypeCondition
		childParent := parentType
		if typeCondition != "" {
			childParent = typeCondition
		}
		sub, err := c.compileSet(s.SelectionSet, childParent)
		if err != nil {
			return nil, err
		}
		if typeCondition == "" {
			// No type condition: the fragment always applies regardless
			// of the object's runtime type, so splice its selections in
			// directly. A variable condition keeps them grouped.
			if len(conds) == 0 {
				return sub, nil
			}
			return []selection.Selection{&selection.Conditional{Conditions: conds, Selections: sub}}, nil
		}
		compiled := &selection.InlineFragment{TypeCondition: typeCondition, Selections: sub}
		return []selection.Selection{wrapConditional(compiled, conds)}, nil

	default:
		return nil, fmt.Errorf("compiler: unsupported selection %T", sel)
	}
}

// compileConditions lowers @include/@skip directives. Variable-valued
// conditions become VariableConditions; literal conditions are resolved
// statically (excluded=true means the selection is dropped entirely).
func compileConditions(directives language.DirectiveList) (conds []selection.VariableCondition, excluded bool) {
	for _, d := range directives {
		inverted := false
		switch d.Name {
		case "include":
		case "skip":
			inverted = true
		default:
			continue
		}
		arg := d.Arguments.ForName("if")
		if arg == nil || arg.Value == nil {
			continue
		}
		switch arg.Value.Kind {
		case language.Variable:
			conds = append(conds, selection.VariableCondition{
				Variable: arg.Value.Raw,
				Inverted: inverted,
			})
		case language.BooleanValue:
			lit := arg.Value.Raw == "true"
			if lit == inverted {
				return nil, true
			}
		}
	}
	return conds, false
}

func wrapConditional(sel selection.Selection, conds []selection.VariableCondition) selection.Selection {
	if len(conds) == 0 {
		return sel
	}
	return &selection.Conditional{Conditions: conds, Selections: []selection.Selection{sel}}
}

func fieldTypeRef(f *language.Field) *selection.TypeRef {
	// The parser binds __typename to a nullable String definition; the
	// meta field actually serializes as String!.
	if f.Name == "__typename" {
		return selection.NonNullType(selection.NamedType("String"))
	}
	if f.Definition == nil {
		return nil
	}
	return typeRefFromAST(f.Definition.Type)
}

func typeRefFromAST(t *language.Type) *selection.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return selection.NonNullType(typeRefFromAST(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return selection.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return selection.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

func compileArguments(args []*language.Argument) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args))
	for _, arg := range args {
		out[arg.Name] = valueFromAST(arg.Value)
	}
	return out
}

// valueFromAST converts an AST value to a plain Go value. Variables are
// kept symbolic; the execution layer substitutes them at run time.
func valueFromAST(v *language.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case ast.Variable:
		return selection.VariableRef{Name: v.Raw}
	case ast.IntValue:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return v.Raw
		}
		return n
	case ast.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return v.Raw
		}
		return f
	case ast.BooleanValue:
		return v.Raw == "true"
	case ast.NullValue:
		return nil
	case ast.ListValue:
		items := make([]any, 0, len(v.Children))
		for _, child := range v.Children {
			items = append(items, valueFromAST(child.Value))
		}
		return items
	case ast.ObjectValue:
		fields := make(map[string]any, len(v.Children))
		for _, child := range v.Children {
			fields[child.Name] = valueFromAST(child.Value)
		}
		return fields
	default:
		return v.Raw
	}
}

func lookupOperation(doc *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" && len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	for _, op := range doc.Operations {
		if op.Name == name {
			return op
		}
	}
	return nil
}

func rootTypeName(sch *ast.Schema, kind language.Operation) string {
	switch kind {
	case language.Mutation:
		if sch.Mutation != nil {
			return sch.Mutation.Name
		}
	case language.Subscription:
		if sch.Subscription != nil {
			return sch.Subscription.Name
		}
	default:
		if sch.Query != nil {
			return sch.Query.Name
		}
	}
	return ""
}
