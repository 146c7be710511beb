package exec

import "github.com/vektah/gqlparser/v2/gqlerror"

// Result is the outcome of applying a selection tree to decoded
// response data. Data is nil when a non-null violation propagated to
// the root.
type Result struct {
	Data   *DataObject
	Errors gqlerror.List
}

// Flatten converts the ordered object tree back into plain Go values
// (map[string]any / []any), dropping provenance. Useful for JSON
// encoding and typed mapping.
func (r *Result) Flatten() map[string]any {
	if r.Data == nil {
		return nil
	}
	return flattenObject(r.Data)
}

func flattenObject(obj *DataObject) map[string]any {
	out := make(map[string]any, len(obj.Keys))
	for _, key := range obj.Keys {
		out[key] = flattenValue(obj.Fields[key])
	}
	return out
}

func flattenValue(v any) any {
	switch val := v.(type) {
	case *DataObject:
		return flattenObject(val)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = flattenValue(item)
		}
		return items
	default:
		return v
	}
}
