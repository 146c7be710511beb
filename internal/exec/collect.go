package exec

import (
	selection "github.com/gqlpipe/gqlpipe/internal/selection"
)

// FieldCollector groups the fields to resolve for one concrete object.
// Two interchangeable strategies share the contract: DefaultCollector
// for normal response parsing and CacheWriteCollector for persisting
// already-resolved object data.
type FieldCollector interface {
	Collect(sels []selection.Selection, grouping *FieldGrouping, obj *DataObject, ectx *Context) error
}

// DefaultCollector is the collection strategy used during response
// parsing: variable conditions are evaluated against the active
// variables and inline fragments against the object's runtime type.
type DefaultCollector struct{}

var _ FieldCollector = DefaultCollector{}

func (c DefaultCollector) Collect(sels []selection.Selection, grouping *FieldGrouping, obj *DataObject, ectx *Context) error {
	for _, sel := range sels {
		switch s := sel.(type) {
		case *selection.Field:
			grouping.Append(s.ResponseKey(), s)

		case *selection.Conditional:
			if !conditionsHold(s.Conditions, ectx.Variables) {
				continue
			}
			if err := c.Collect(s.Selections, grouping, obj, ectx); err != nil {
				return err
			}

		case *selection.FragmentSpread:
			grouping.MarkFulfilled(s.FragmentIdentity())
			if err := c.Collect(s.Selections, grouping, obj, ectx); err != nil {
				return err
			}

		case *selection.InlineFragment:
			runtimeType := ectx.RuntimeType(obj)
			if !ectx.Schema.Satisfies(runtimeType, s.TypeCondition) {
				continue
			}
			grouping.MarkFulfilled(s.FragmentIdentity())
			if err := c.Collect(s.Selections, grouping, obj, ectx); err != nil {
				return err
			}
		}
	}
	return nil
}

func conditionsHold(conds []selection.VariableCondition, variables map[string]any) bool {
	for _, cond := range conds {
		if !cond.Evaluate(variables) {
			return false
		}
	}
	return true
}
