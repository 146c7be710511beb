package httptp

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates the transport was used after Close.
	ErrClosed = errors.New("httptp: closed")
)

// StatusError reports a non-2xx transport status.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httptp: server returned status %d", e.Status)
}
