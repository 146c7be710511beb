package exec

// DataObject is a concrete object under collection: decoded response
// data keyed by response key, together with the fulfilled-fragment set
// recorded when the object was first resolved. Fulfilled is nil for
// objects that never went through default collection (e.g. raw decoded
// JSON); the cache-write strategy requires it to be present.
type DataObject struct {
	// Keys preserves response-key order from the resolution pass.
	Keys   []string
	Fields map[string]any
	// Fulfilled is the provenance recorded at resolution time; required
	// by the cache-write collection strategy.
	Fulfilled FulfilledSet
}

// NewDataObject returns an empty object with no recorded provenance.
func NewDataObject() *DataObject {
	return &DataObject{Fields: make(map[string]any)}
}

// FromMap wraps raw decoded JSON as an object without provenance. Key
// order follows nothing in particular; it is only used as collection
// input, where order is defined by the selection tree.
func FromMap(m map[string]any) *DataObject {
	obj := &DataObject{Fields: m}
	if m == nil {
		obj.Fields = map[string]any{}
	}
	for k := range obj.Fields {
		obj.Keys = append(obj.Keys, k)
	}
	return obj
}

// Set stores a value under key, appending to the key order on first
// write.
func (o *DataObject) Set(key string, value any) {
	if _, exists := o.Fields[key]; !exists {
		o.Keys = append(o.Keys, key)
	}
	o.Fields[key] = value
}

// Get returns the value stored under key and whether it is present.
func (o *DataObject) Get(key string) (any, bool) {
	v, ok := o.Fields[key]
	return v, ok
}

// HasValue reports whether key is present with a non-null value.
func (o *DataObject) HasValue(key string) bool {
	v, ok := o.Fields[key]
	return ok && v != nil
}
