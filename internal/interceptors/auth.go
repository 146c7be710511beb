package interceptors

import (
	chain "github.com/gqlpipe/gqlpipe/internal/chain"
)

// TokenProvider supplies the bearer token attached to outgoing
// requests. Returning an empty token leaves the request untouched.
type TokenProvider func(req *chain.Request) (string, error)

// Auth decorates outgoing requests with an Authorization header. Token
// refresh policies belong in a centralized error handler that calls
// Retry after re-authenticating.
type Auth[R any] struct {
	Token TokenProvider
}

func (a *Auth[R]) Intercept(link *chain.Link[R], req *chain.Request, resp *chain.Response[R]) {
	if a.Token != nil {
		token, err := a.Token(req)
		if err != nil {
			link.HandleError(err, req, resp)
			return
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	link.Proceed(req, resp)
}
