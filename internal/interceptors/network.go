package interceptors

import (
	"context"
	"sync"

	chain "github.com/gqlpipe/gqlpipe/internal/chain"
	httptp "github.com/gqlpipe/gqlpipe/internal/httptp"
)

// Network fetches the operation over HTTP. The round trip runs on its
// own goroutine; the interceptor supports cooperative cancellation by
// cancelling the in-flight request context.
type Network[R any] struct {
	Transport *httptp.Transport

	mu     sync.Mutex
	cancel context.CancelFunc
}

var _ chain.Cancellable = (*Network[any])(nil)

func (n *Network[R]) Intercept(link *chain.Link[R], req *chain.Request, resp *chain.Response[R]) {
	// A cache hit upstream already produced the data; nothing to fetch.
	if resp != nil && resp.FromCache {
		link.Proceed(req, resp)
		return
	}

	ctx, cancel := context.WithCancel(requestContext(req))
	n.mu.Lock()
	n.cancel = cancel
	n.mu.Unlock()

	go func() {
		defer cancel()
		op := req.Operation
		status, raw, err := n.Transport.Post(ctx, req.Endpoint, op.Name, req.Header, httptp.OperationBody{
			Query:         op.Document,
			OperationName: op.Name,
			Variables:     op.Variables,
		})
		if err != nil {
			link.HandleError(err, req, resp)
			return
		}
		link.Proceed(req, &chain.Response[R]{Raw: raw, StatusCode: status})
	}()
}

// Cancel aborts the in-flight round trip, if any.
func (n *Network[R]) Cancel() {
	n.mu.Lock()
	cancel := n.cancel
	n.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func requestContext(req *chain.Request) context.Context {
	if req != nil && req.Context != nil {
		return req.Context
	}
	return context.Background()
}
