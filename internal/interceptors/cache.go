package interceptors

import (
	"time"

	cache "github.com/gqlpipe/gqlpipe/internal/cache"
	chain "github.com/gqlpipe/gqlpipe/internal/chain"
	eventbus "github.com/gqlpipe/gqlpipe/internal/eventbus"
	events "github.com/gqlpipe/gqlpipe/internal/events"
	exec "github.com/gqlpipe/gqlpipe/internal/exec"
)

// CacheRead serves stored results for CacheFirst requests. On a hit the
// stored object tree is attached to the response and the chain
// continues: the network stage sees FromCache and skips the fetch, the
// parse stage maps the stored tree into the typed result. On a miss the
// request continues to the network untouched.
type CacheRead[R any] struct {
	Store cache.Store
}

func (c *CacheRead[R]) Intercept(link *chain.Link[R], req *chain.Request, resp *chain.Response[R]) {
	if c.Store == nil || req.CachePolicy != chain.CacheFirst {
		link.Proceed(req, resp)
		return
	}
	op := req.Operation
	key := cache.OperationKey(op.Name, op.Document, op.Variables)
	entry, ok := c.Store.Get(key)
	if !ok {
		eventbus.Publish(requestContext(req), events.CacheMiss{Operation: op.Name, Key: key})
		link.Proceed(req, resp)
		return
	}
	eventbus.Publish(requestContext(req), events.CacheHit{Operation: op.Name, Key: key})
	link.Proceed(req, &chain.Response[R]{
		Normalized: &exec.Result{Data: entry.Data},
		FromCache:  true,
	})
}

// CacheWrite persists freshly fetched results. The stored object tree
// keeps its fulfilled-fragment provenance, so later partial writes can
// run the cache-write collection strategy against it.
type CacheWrite[R any] struct {
	Store cache.Store
}

func (c *CacheWrite[R]) Intercept(link *chain.Link[R], req *chain.Request, resp *chain.Response[R]) {
	if c.Store == nil || req.CachePolicy == chain.NoCache {
		link.Proceed(req, resp)
		return
	}
	if resp == nil || resp.FromCache || resp.Normalized == nil || resp.Normalized.Data == nil {
		link.Proceed(req, resp)
		return
	}
	op := req.Operation
	key := cache.OperationKey(op.Name, op.Document, op.Variables)
	c.Store.Put(key, &cache.Entry{Data: resp.Normalized.Data, StoredAt: time.Now()})
	eventbus.Publish(requestContext(req), events.CacheWrite{Operation: op.Name, Key: key})
	link.Proceed(req, resp)
}
