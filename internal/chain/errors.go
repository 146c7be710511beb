package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInterceptors indicates KickOff was called on a chain with an
	// empty interceptor sequence.
	ErrNoInterceptors = errors.New("chain: no interceptors configured")
)

// InvalidIndexError indicates the interceptor sequence was exhausted
// without any interceptor producing a parsed result. It signals a
// malformed pipeline assembly, not a transient failure.
type InvalidIndexError struct {
	Index int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("chain: interceptor index %d out of range and no parsed result produced", e.Index)
}
