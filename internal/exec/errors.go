package exec

import "errors"

var (
	// ErrFulfilledFragmentsMissing indicates the cache-write collection
	// strategy was invoked on an object that carries no recorded
	// fulfilled-fragment provenance.
	ErrFulfilledFragmentsMissing = errors.New("exec: object carries no fulfilled fragment provenance")
)
