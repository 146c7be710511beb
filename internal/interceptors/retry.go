package interceptors

import (
	"errors"
	"net"
	"sync/atomic"

	chain "github.com/gqlpipe/gqlpipe/internal/chain"
	httptp "github.com/gqlpipe/gqlpipe/internal/httptp"
)

// RetryHandler is a centralized error policy that restarts the chain
// for transient transport failures, up to MaxAttempts restarts. All
// other errors pass through verbatim. One handler instance serves one
// chain.
type RetryHandler[R any] struct {
	MaxAttempts int

	attempts atomic.Int32
}

var _ chain.ErrorHandler[any] = (*RetryHandler[any])(nil)

func (h *RetryHandler[R]) HandleChainError(err error, c *chain.Chain[R], req *chain.Request, resp *chain.Response[R], done chain.ResultHandler[R]) {
	if transient(err) && int(h.attempts.Add(1)) <= h.MaxAttempts {
		c.Retry(req)
		return
	}
	done(resp, err)
}

// transient reports whether the failure is worth another pass: server
// 5xx responses and network-level errors qualify, everything else
// (malformed pipeline, parse failures, GraphQL errors) does not.
func transient(err error) bool {
	var statusErr *httptp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
