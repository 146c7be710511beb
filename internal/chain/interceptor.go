package chain

// Interceptor is one unit of asynchronous request processing. Intercept
// may do arbitrary asynchronous work (on any goroutine) and must
// eventually call exactly one of the continuation methods on its Link:
// Proceed, Retry, HandleError, or ReturnValue. Interceptors hold no
// ownership of the chain; the chain's self-extended lifetime guarantees
// it outlives any pending callback.
type Interceptor[R any] interface {
	Intercept(link *Link[R], req *Request, resp *Response[R])
}

// Cancellable is implemented by interceptors that can abort in-flight
// work when the chain is cancelled. Cancel must return promptly and be
// idempotent.
type Cancellable interface {
	Cancel()
}

// Link pairs an interceptor with its fixed position in the chain and is
// handed to the interceptor as its continuation handle. The chain
// pointer is non-owning.
type Link[R any] struct {
	interceptor Interceptor[R]
	chain       *Chain[R]
	index       int
}

// Proceed hands control to the next interceptor in the chain, or
// triggers final delivery when this link is the last one. A no-op once
// the chain is cancelled.
func (l *Link[R]) Proceed(req *Request, resp *Response[R]) {
	l.chain.Proceed(req, resp, l.index)
}

// Retry restarts the whole chain from interceptor 0.
func (l *Link[R]) Retry(req *Request) {
	l.chain.Retry(req)
}

// HandleError routes err through the chain's error path.
func (l *Link[R]) HandleError(err error, req *Request, resp *Response[R]) {
	l.chain.HandleError(err, req, resp)
}

// ReturnValue delivers resp as a success without running the remaining
// interceptors.
func (l *Link[R]) ReturnValue(req *Request, resp *Response[R]) {
	l.chain.ReturnValue(req, resp)
}

// Cancelled reports whether the owning chain has been cancelled.
// Interceptors doing long work may poll it cooperatively.
func (l *Link[R]) Cancelled() bool {
	return l.chain.cancelled.Load()
}

// ResultHandler receives the terminal outcome of one kick-off/retry
// cycle: a response carrying a parsed result, or an error. Exactly one
// of the two is set.
type ResultHandler[R any] func(resp *Response[R], err error)

// ErrorHandler is an optional centralized error policy. It gets first
// refusal on every upstream error and may convert it into a success
// (for example by re-authenticating and retrying). Whatever it passes
// to done is what the caller receives.
type ErrorHandler[R any] interface {
	HandleChainError(err error, c *Chain[R], req *Request, resp *Response[R], done ResultHandler[R])
}
