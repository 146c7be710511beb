package schema

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// Registry is the client-side view of the schema: for each named type,
// the capabilities needed to match type conditions at runtime. It is
// immutable after construction and safe for concurrent reads.
type Registry struct {
	types  map[string]*Type
	source *ast.Schema
}

// Type describes a named type's declared capabilities.
type Type struct {
	Name string
	Kind TypeKind
	// Interfaces the type implements (for OBJECT and INTERFACE).
	Implements []string
	// PossibleTypes lists concrete members (for INTERFACE and UNION).
	PossibleTypes []string
}

type TypeKind string

const (
	TypeKindScalar    TypeKind = "SCALAR"
	TypeKindObject    TypeKind = "OBJECT"
	TypeKindInterface TypeKind = "INTERFACE"
	TypeKindUnion     TypeKind = "UNION"
	TypeKindEnum      TypeKind = "ENUM"
)

// New builds a registry from explicit type declarations. Generated
// operation code registers its schema this way.
func New(types ...*Type) *Registry {
	r := &Registry{types: make(map[string]*Type, len(types))}
	for _, t := range types {
		r.types[t.Name] = t
	}
	return r
}

// FromSDL builds a registry by parsing and validating an SDL document.
func FromSDL(name, sdl string) (*Registry, error) {
	doc, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, err
	}
	types := make([]*Type, 0, len(doc.Types))
	for _, def := range doc.Types {
		t := &Type{Name: def.Name, Implements: def.Interfaces}
		switch def.Kind {
		case ast.Object:
			t.Kind = TypeKindObject
		case ast.Interface:
			t.Kind = TypeKindInterface
		case ast.Union:
			t.Kind = TypeKindUnion
		case ast.Enum:
			t.Kind = TypeKindEnum
		default:
			t.Kind = TypeKindScalar
		}
		for _, pt := range doc.PossibleTypes[def.Name] {
			t.PossibleTypes = append(t.PossibleTypes, pt.Name)
		}
		types = append(types, t)
	}
	r := New(types...)
	r.source = doc
	return r, nil
}

// Source returns the parsed schema document when the registry was built
// from SDL, nil otherwise. The compiler needs it to bind queries.
func (r *Registry) Source() *ast.Schema {
	if r == nil {
		return nil
	}
	return r.source
}

// Lookup returns the declared type, or nil if unknown.
func (r *Registry) Lookup(name string) *Type {
	if r == nil {
		return nil
	}
	return r.types[name]
}

// Satisfies reports whether a value of the concrete runtimeType matches
// the given type condition: the condition names the type itself, an
// interface the type implements, or an abstract type listing it as a
// possible type.
func (r *Registry) Satisfies(runtimeType, condition string) bool {
	if condition == "" || runtimeType == condition {
		return true
	}
	if r == nil {
		return false
	}
	if t := r.types[runtimeType]; t != nil {
		for _, iface := range t.Implements {
			if iface == condition {
				return true
			}
		}
	}
	if cond := r.types[condition]; cond != nil {
		for _, pt := range cond.PossibleTypes {
			if pt == runtimeType {
				return true
			}
		}
	}
	return false
}
