package chain

import (
	"context"
	"net/http"

	exec "github.com/gqlpipe/gqlpipe/internal/exec"
	language "github.com/gqlpipe/gqlpipe/internal/language"
	selection "github.com/gqlpipe/gqlpipe/internal/selection"
)

// Operation is one declared query-protocol operation: the raw document
// sent over the wire plus the compiled selection tree used to parse the
// response.
type Operation struct {
	Name       string
	Kind       language.Operation
	Document   string
	Selections []selection.Selection
	Variables  map[string]any
}

// IsSubscription reports whether the operation is long-lived; a
// subscription keeps its chain alive after the first delivered result.
func (o *Operation) IsSubscription() bool {
	return o != nil && o.Kind == language.Subscription
}

// CachePolicy controls how the cache interceptors treat a request.
type CachePolicy int

const (
	// CacheFirst returns cached data when present and fetches otherwise.
	CacheFirst CachePolicy = iota
	// NetworkOnly bypasses the cache read but still writes results back.
	NetworkOnly
	// NoCache bypasses the cache entirely.
	NoCache
)

// Request is the mutable accumulated state threaded through every
// interceptor in a chain. Interceptors may add headers, rewrite the
// endpoint, or attach context values before handing off.
type Request struct {
	Context     context.Context
	Operation   *Operation
	Endpoint    string
	Header      http.Header
	CachePolicy CachePolicy
}

// NewRequest builds a request carrying ctx and op with an empty header
// set.
func NewRequest(ctx context.Context, op *Operation) *Request {
	return &Request{
		Context:   ctx,
		Operation: op,
		Header:    make(http.Header),
	}
}

func (r *Request) context() context.Context {
	if r == nil || r.Context == nil {
		return context.Background()
	}
	return r.Context
}

// Response accumulates what the pipeline has produced so far for a
// request. It stays nil until some interceptor produces it; a parsed
// result may appear before the sequence is exhausted (later
// interceptors still run, e.g. for cache writes).
type Response[R any] struct {
	// Raw is the undecoded response body.
	Raw []byte
	// StatusCode is the transport status, when the response came over
	// HTTP.
	StatusCode int
	// Normalized is the selection-applied object tree, carrying the
	// fulfilled-fragment provenance cache writes need.
	Normalized *exec.Result
	// Result is the parsed typed result; its presence marks the
	// response as terminal-capable.
	Result *R
	// FromCache marks results served from the local store.
	FromCache bool
}

// HasParsedResult reports whether a parsed result is present.
func (r *Response[R]) HasParsedResult() bool {
	return r != nil && r.Result != nil
}
