package exec

import (
	selection "github.com/gqlpipe/gqlpipe/internal/selection"
)

// CacheWriteCollector groups fields for persisting arbitrary object
// data. Variable and runtime-type gating from the original fetch is
// ignored so that already-resolved data is written even where the
// original conditions would not statically apply; fragment descent is
// gated instead on the fulfilled-fragment set recorded on the object
// when it was resolved.
type CacheWriteCollector struct{}

var _ FieldCollector = CacheWriteCollector{}

func (c CacheWriteCollector) Collect(sels []selection.Selection, grouping *FieldGrouping, obj *DataObject, ectx *Context) error {
	if obj == nil || obj.Fulfilled == nil {
		return ErrFulfilledFragmentsMissing
	}
	return c.collect(sels, grouping, obj, false)
}

func (c CacheWriteCollector) collect(sels []selection.Selection, grouping *FieldGrouping, obj *DataObject, inConditional bool) error {
	for _, sel := range sels {
		switch s := sel.(type) {
		case *selection.Field:
			// Under a conditional ancestor a non-nullable field with no
			// recorded value would fabricate a presence signal; skip it.
			// Nullable fields are written regardless of presence.
			if inConditional && s.Type.IsNonNull() && !obj.HasValue(s.ResponseKey()) {
				continue
			}
			grouping.Append(s.ResponseKey(), s)

		case *selection.Conditional:
			if err := c.collect(s.Selections, grouping, obj, true); err != nil {
				return err
			}

		case *selection.FragmentSpread:
			if !obj.Fulfilled.Contains(s.FragmentIdentity()) {
				continue
			}
			grouping.MarkFulfilled(s.FragmentIdentity())
			if err := c.collect(s.Selections, grouping, obj, false); err != nil {
				return err
			}

		case *selection.InlineFragment:
			if !obj.Fulfilled.Contains(s.FragmentIdentity()) {
				continue
			}
			grouping.MarkFulfilled(s.FragmentIdentity())
			if err := c.collect(s.Selections, grouping, obj, false); err != nil {
				return err
			}
		}
	}
	return nil
}
