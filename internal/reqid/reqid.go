package reqid

import (
	"context"
	"math/rand/v2"
)

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with a new random request ID
// stored. It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, uint64) {
	id := rand.Uint64()
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (uint64, bool) {
	v := ctx.Value(key{})
	id, ok := v.(uint64)
	return id, ok
}
