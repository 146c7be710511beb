package interceptors

import (
	"sync"

	chain "github.com/gqlpipe/gqlpipe/internal/chain"
	wstp "github.com/gqlpipe/gqlpipe/internal/wstp"
)

// Subscribe drives a subscription operation over a websocket
// connection. Every pushed payload re-enters the chain via Proceed, so
// downstream stages (parse, cache write) run once per push and the
// terminal delivery fires once per push; the chain stays alive between
// pushes because subscription operations skip the success-path lifetime
// release.
type Subscribe[R any] struct {
	Endpoint string
	// OnComplete fires when the server ends the stream. The caller
	// typically cancels the chain from here; nothing further will be
	// pushed either way.
	OnComplete func()

	mu   sync.Mutex
	conn *wstp.Conn
}

var _ chain.Cancellable = (*Subscribe[any])(nil)

func (s *Subscribe[R]) Intercept(link *chain.Link[R], req *chain.Request, resp *chain.Response[R]) {
	if !req.Operation.IsSubscription() {
		link.Proceed(req, resp)
		return
	}

	go func() {
		conn, err := wstp.Dial(requestContext(req), s.Endpoint, req.Header)
		if err != nil {
			link.HandleError(err, req, resp)
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		op := req.Operation
		_, err = conn.Subscribe(wstp.SubscribePayload{
			Query:         op.Document,
			OperationName: op.Name,
			Variables:     op.Variables,
		}, wstp.Events{
			OnNext: func(payload []byte) {
				link.Proceed(req, &chain.Response[R]{Raw: payload})
			},
			OnError: func(err error) {
				link.HandleError(err, req, resp)
			},
			OnComplete: func() {
				if s.OnComplete != nil {
					s.OnComplete()
				}
			},
		})
		if err != nil {
			link.HandleError(err, req, resp)
		}
	}()
}

// Cancel closes the websocket connection, completing the subscription.
func (s *Subscribe[R]) Cancel() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
