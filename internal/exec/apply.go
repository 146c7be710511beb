package exec

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	selection "github.com/gqlpipe/gqlpipe/internal/selection"
)

// Apply walks a selection tree over decoded response data and produces
// an ordered result. Each object node in the result carries the
// fulfilled-fragment set recorded during collection, which is the
// provenance later required by the cache-write collection strategy.
//
// Nullability violations are reported as located errors; a null in a
// non-null position propagates to the nearest nullable ancestor.
func Apply(sels []selection.Selection, data map[string]any, ectx *Context) *Result {
	a := &applier{ectx: ectx, collector: DefaultCollector{}}
	obj, ok := a.applyObject(sels, data, ectx.Path)
	res := &Result{Errors: a.errors}
	if ok {
		res.Data = obj
	}
	return res
}

type applier struct {
	ectx      *Context
	collector DefaultCollector
	errors    gqlerror.List
}

// applyObject resolves one concrete object. The second return value is
// false when a non-null violation inside the object forces the object
// itself to become null.
func (a *applier) applyObject(sels []selection.Selection, raw map[string]any, path Path) (*DataObject, bool) {
	source := FromMap(raw)
	grouping := NewFieldGrouping()
	if err := a.collector.Collect(sels, grouping, source, a.ectx); err != nil {
		a.addError(err.Error(), path)
		return nil, false
	}

	out := NewDataObject()
	out.Fulfilled = grouping.Fulfilled()

	for _, group := range grouping.Ordered() {
		field := group.Fields[0]
		fieldPath := appendPath(path, group.ResponseKey)

		if field.Name == "__typename" {
			out.Set(group.ResponseKey, a.ectx.RuntimeType(source))
			continue
		}

		rawValue := raw[group.ResponseKey]
		merged := mergeSelections(group.Fields)
		value, ok := a.completeValue(field.Type, merged, rawValue, fieldPath)
		if !ok {
			return nil, false
		}
		out.Set(group.ResponseKey, value)
	}
	return out, true
}

// completeValue completes one value against its declared type. The
// second return value is false when a non-null violation must propagate
// past this position; nullable positions absorb the propagation by
// producing null.
func (a *applier) completeValue(t *selection.TypeRef, sels []selection.Selection, raw any, path Path) (any, bool) {
	if t.IsNonNull() {
		value, ok := a.completeInner(t.Unwrap(), sels, raw, path)
		if !ok {
			return nil, false
		}
		if value == nil {
			a.addError(fmt.Sprintf("cannot return null for non-nullable field %s", pathToString(path)), path)
			return nil, false
		}
		return value, true
	}
	value, ok := a.completeInner(t, sels, raw, path)
	if !ok {
		return nil, true
	}
	return value, true
}

func (a *applier) completeInner(t *selection.TypeRef, sels []selection.Selection, raw any, path Path) (any, bool) {
	if raw == nil {
		return nil, true
	}

	if t != nil && t.Kind == selection.TypeRefKindList {
		items, ok := raw.([]any)
		if !ok {
			a.addError(fmt.Sprintf("expected list value at %s, got %T", pathToString(path), raw), path)
			return nil, true
		}
		elemType := t.Unwrap()
		completed := make([]any, len(items))
		for i, item := range items {
			v, ok := a.completeValue(elemType, sels, item, appendPath(path, i))
			if !ok {
				return nil, false
			}
			completed[i] = v
		}
		return completed, true
	}

	if len(sels) == 0 {
		// Leaf position: decoded JSON value passes through.
		return raw, true
	}

	childMap, ok := raw.(map[string]any)
	if !ok {
		a.addError(fmt.Sprintf("expected object value at %s, got %T", pathToString(path), raw), path)
		return nil, true
	}
	obj, ok := a.applyObject(sels, childMap, path)
	if !ok {
		return nil, false
	}
	return obj, true
}

func (a *applier) addError(message string, path Path) {
	a.errors = append(a.errors, &gqlerror.Error{
		Message: message,
		Path:    toASTPath(path),
	})
}

func toASTPath(path Path) ast.Path {
	out := make(ast.Path, 0, len(path))
	for _, elem := range path {
		switch v := elem.(type) {
		case string:
			out = append(out, ast.PathName(v))
		case int:
			out = append(out, ast.PathIndex(v))
		}
	}
	return out
}

// mergeSelections merges sub-selections from multiple occurrences of
// one response key.
func mergeSelections(fields []*selection.Field) []selection.Selection {
	var merged []selection.Selection
	for _, f := range fields {
		merged = append(merged, f.Selections...)
	}
	return merged
}
