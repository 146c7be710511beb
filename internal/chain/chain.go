package chain

import (
	"sync/atomic"

	eventbus "github.com/gqlpipe/gqlpipe/internal/eventbus"
	events "github.com/gqlpipe/gqlpipe/internal/events"
)

// Chain drives one request through an ordered interceptor sequence. It
// is created per logical request attempt, retains itself for the
// duration of the in-flight request (including across retries), and
// releases that self-retention exactly once: on cancellation, or on a
// terminal success for non-subscription operations.
//
// The interceptor sequence and error handler are immutable after
// construction; the cancellation flag is the only shared mutable state
// and is atomic. Proceed, Cancel and Retry never block: they complete
// immediately or hand off to the next asynchronous unit.
type Chain[R any] struct {
	links        []*Link[R]
	interceptors []Interceptor[R]
	queue        DeliveryQueue
	errorHandler ErrorHandler[R]

	cancelled atomic.Bool
	handle    *LifetimeHandle

	// done is set once at KickOff, before any dispatch.
	done ResultHandler[R]
}

// Option configures a chain at construction.
type Option[R any] func(*Chain[R])

// WithQueue sets the delivery queue terminal results are handed to.
func WithQueue[R any](q DeliveryQueue) Option[R] {
	return func(c *Chain[R]) { c.queue = q }
}

// WithErrorHandler installs a centralized error policy.
func WithErrorHandler[R any](h ErrorHandler[R]) Option[R] {
	return func(c *Chain[R]) { c.errorHandler = h }
}

// WithLifetimeRegistry overrides the registry the chain retains itself
// in. Tests use it as a leak/double-release probe.
func WithLifetimeRegistry[R any](r *LifetimeRegistry) Option[R] {
	return func(c *Chain[R]) { c.handle = r.Retain(c) }
}

// New assembles a chain over the given interceptor sequence. The chain
// retains itself immediately; the retention is dropped on the first
// terminal transition.
func New[R any](interceptors []Interceptor[R], opts ...Option[R]) *Chain[R] {
	c := &Chain[R]{
		interceptors: interceptors,
		queue:        DirectQueue{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.handle == nil {
		c.handle = defaultLifetimes.Retain(c)
	}
	c.links = make([]*Link[R], len(interceptors))
	for i, itc := range interceptors {
		c.links[i] = &Link[R]{interceptor: itc, chain: c, index: i}
	}
	return c
}

// KickOff starts the request through interceptor 0. done receives the
// terminal outcome of this kick-off/retry cycle exactly once, on the
// chain's delivery queue, unless the chain is cancelled first.
func (c *Chain[R]) KickOff(req *Request, done ResultHandler[R]) {
	c.done = done
	if len(c.links) == 0 {
		c.HandleError(ErrNoInterceptors, req, nil)
		return
	}
	eventbus.Publish(req.context(), events.ChainKickOff{Operation: operationName(req)})
	c.dispatch(0, req, nil)
}

// Proceed hands control from the interceptor at completedIndex to its
// successor. Silent no-op once cancelled. On sequence exhaustion a
// parsed result is delivered as success; its absence is a malformed
// pipeline and fails with InvalidIndexError.
func (c *Chain[R]) Proceed(req *Request, resp *Response[R], completedIndex int) {
	if c.cancelled.Load() {
		return
	}
	next := completedIndex + 1
	if next < len(c.links) {
		c.dispatch(next, req, resp)
		return
	}
	if resp.HasParsedResult() {
		c.ReturnValue(req, resp)
		if !req.Operation.IsSubscription() {
			c.handle.Release()
		}
		return
	}
	c.HandleError(&InvalidIndexError{Index: next}, req, resp)
}

// Cancel sets the cancellation flag, forwards cancellation to every
// interceptor that supports it, and drops the chain's self-retention.
// Idempotent and safe to call from any goroutine concurrently with an
// in-flight Proceed. After Cancel no callback is ever delivered, even
// if an interceptor ignores the request and calls back anyway.
func (c *Chain[R]) Cancel() {
	if c.cancelled.Swap(true) {
		return
	}
	for _, itc := range c.interceptors {
		if cn, ok := itc.(Cancellable); ok {
			cn.Cancel()
		}
	}
	c.handle.Release()
}

// Retry restarts the request with a fresh pass through interceptor 0.
// No-op once cancelled. The cancellation flag is not reset and the
// lifetime is not re-extended; the retention from construction is still
// held.
func (c *Chain[R]) Retry(req *Request) {
	if c.cancelled.Load() {
		return
	}
	if len(c.links) == 0 {
		c.HandleError(ErrNoInterceptors, req, nil)
		return
	}
	eventbus.Publish(req.context(), events.ChainRetry{Operation: operationName(req)})
	c.dispatch(0, req, nil)
}

// HandleError routes an upstream error to the centralized handler when
// one is configured, delivering whatever outcome the handler produces;
// otherwise the error is delivered verbatim. Swallowed silently once
// cancelled.
func (c *Chain[R]) HandleError(err error, req *Request, resp *Response[R]) {
	if c.cancelled.Load() {
		return
	}
	if c.errorHandler != nil {
		c.errorHandler.HandleChainError(err, c, req, resp, func(r *Response[R], herr error) {
			c.deliver(req, r, herr)
		})
		return
	}
	c.deliver(req, resp, err)
}

// ReturnValue delivers resp as the terminal success. Swallowed silently
// once cancelled.
func (c *Chain[R]) ReturnValue(req *Request, resp *Response[R]) {
	c.deliver(req, resp, nil)
}

func (c *Chain[R]) dispatch(index int, req *Request, resp *Response[R]) {
	if c.cancelled.Load() {
		return
	}
	eventbus.Publish(req.context(), events.ChainProceed{Operation: operationName(req), Index: index})
	link := c.links[index]
	link.interceptor.Intercept(link, req, resp)
}

func (c *Chain[R]) deliver(req *Request, resp *Response[R], err error) {
	if c.cancelled.Load() {
		return
	}
	eventbus.Publish(req.context(), events.ChainDeliver{Operation: operationName(req), Err: err})
	done := c.done
	if done == nil {
		return
	}
	c.queue.Dispatch(func() {
		done(resp, err)
	})
}

func operationName(req *Request) string {
	if req == nil || req.Operation == nil {
		return ""
	}
	return req.Operation.Name
}
