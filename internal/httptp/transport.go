package httptp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	eventbus "github.com/gqlpipe/gqlpipe/internal/eventbus"
	events "github.com/gqlpipe/gqlpipe/internal/events"
)

// Transport posts query-protocol operations over HTTP with connection
// reuse and deadline propagation. A default per-request timeout applies
// only when the incoming context carries no deadline.

type Transport struct {
	opts   *Options
	client *http.Client
	closed atomic.Bool
}

// OperationBody is the wire body for a single operation.
type OperationBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

func New(opts ...Option) *Transport {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	client := o.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: o.MaxIdleConnsPerHost,
			},
		}
	}
	return &Transport{opts: o, client: client}
}

// Post sends body to endpoint and returns the status code and raw
// response body. Non-2xx statuses are returned as *StatusError along
// with the body for diagnostics.
func (t *Transport) Post(ctx context.Context, endpoint, operation string, header http.Header, body OperationBody) (status int, raw []byte, err error) {
	if t.closed.Load() {
		return 0, nil, ErrClosed
	}

	if _, ok := ctx.Deadline(); !ok {
		if t.opts.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.opts.RequestTimeout)
			defer cancel()
		}
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.opts.UserAgent)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.HTTPRequestStart{Operation: operation, Endpoint: endpoint})
	resp, err := t.client.Do(req)
	if err != nil {
		eventbus.Publish(ctx, events.HTTPRequestFinish{
			Operation: operation, Endpoint: endpoint, Err: err, Duration: time.Since(start),
		})
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err = io.ReadAll(resp.Body)
	eventbus.Publish(ctx, events.HTTPRequestFinish{
		Operation: operation,
		Endpoint:  endpoint,
		Status:    resp.StatusCode,
		Err:       err,
		Duration:  time.Since(start),
	})
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, raw, &StatusError{Status: resp.StatusCode, Body: raw}
	}
	return resp.StatusCode, raw, nil
}

// Close makes further calls fail and drops idle connections.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if tr, ok := t.client.Transport.(*http.Transport); ok && tr != nil {
		tr.CloseIdleConnections()
	}
	return nil
}
