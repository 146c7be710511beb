package exec

import (
	selection "github.com/gqlpipe/gqlpipe/internal/selection"
)

// GroupedField is one response key together with every field occurrence
// merged under it across fragments and type cases. Upstream validation
// guarantees merged occurrences are compatible; this layer does not
// re-check.
type GroupedField struct {
	ResponseKey string
	Fields      []*selection.Field
}

// FieldGrouping preserves field order from the original query: the first
// occurrence of a response key fixes its position, later occurrences
// append to the existing group. It also records which fragments were
// fulfilled for the object being collected.
type FieldGrouping struct {
	groups    []GroupedField
	index     map[string]int
	fulfilled FulfilledSet
}

func NewFieldGrouping() *FieldGrouping {
	return &FieldGrouping{
		groups:    make([]GroupedField, 0),
		index:     make(map[string]int),
		fulfilled: make(FulfilledSet),
	}
}

// Append merges a field occurrence into the grouping under responseKey.
func (g *FieldGrouping) Append(responseKey string, field *selection.Field) {
	if idx, exists := g.index[responseKey]; exists {
		g.groups[idx].Fields = append(g.groups[idx].Fields, field)
		return
	}
	g.index[responseKey] = len(g.groups)
	g.groups = append(g.groups, GroupedField{
		ResponseKey: responseKey,
		Fields:      []*selection.Field{field},
	})
}

// Ordered returns the grouped fields in first-seen response-key order.
func (g *FieldGrouping) Ordered() []GroupedField { return g.groups }

// Len returns the number of distinct response keys collected.
func (g *FieldGrouping) Len() int { return len(g.groups) }

// MarkFulfilled records a fragment identity as fulfilled for the object
// under collection.
func (g *FieldGrouping) MarkFulfilled(identity string) {
	g.fulfilled[identity] = struct{}{}
}

// Fulfilled returns the fulfilled-fragment set accumulated so far.
func (g *FieldGrouping) Fulfilled() FulfilledSet { return g.fulfilled }

// FulfilledSet holds the identities of fragments and type cases whose
// conditions were satisfied for a given object.
type FulfilledSet map[string]struct{}

func (s FulfilledSet) Contains(identity string) bool {
	_, ok := s[identity]
	return ok
}

// Clone returns an independent copy of the set.
func (s FulfilledSet) Clone() FulfilledSet {
	if s == nil {
		return nil
	}
	out := make(FulfilledSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
