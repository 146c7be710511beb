package exec

import (
	"fmt"

	schema "github.com/gqlpipe/gqlpipe/internal/schema"
)

type Path []PathElement

type PathElement any

// Context holds per-resolution state threaded through field collection
// and response application: the active variables, the response path so
// far, and the schema registry used for type-condition matching.
type Context struct {
	Variables map[string]any
	Path      Path
	Schema    *schema.Registry
	// Resolver determines an object's concrete runtime type. When nil,
	// the __typename field of the object is used.
	Resolver TypeResolver
}

// TypeResolver resolves an object's concrete declared type identity.
type TypeResolver interface {
	ResolveType(obj *DataObject, ectx *Context) string
}

// RuntimeType returns the concrete type name for obj, consulting the
// configured resolver first and falling back to __typename.
func (c *Context) RuntimeType(obj *DataObject) string {
	if c.Resolver != nil {
		if name := c.Resolver.ResolveType(obj, c); name != "" {
			return name
		}
	}
	if obj == nil {
		return ""
	}
	name, _ := obj.Fields["__typename"].(string)
	return name
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

func pathToString(path Path) string {
	result := ""
	for i, elem := range path {
		if i > 0 {
			result += "."
		}
		switch v := elem.(type) {
		case string:
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}
