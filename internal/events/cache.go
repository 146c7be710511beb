package events

// CacheHit is emitted when a cache read interceptor serves a stored
// result.
type CacheHit struct {
	Operation string
	Key       string
}

// CacheMiss is emitted when a cache read interceptor finds nothing and
// lets the request continue to the network.
type CacheMiss struct {
	Operation string
	Key       string
}

// CacheWrite is emitted after a result is persisted to the store.
type CacheWrite struct {
	Operation string
	Key       string
}
