package events

// ChainKickOff is emitted when a request chain starts its first pass.
type ChainKickOff struct {
	Operation string
}

// ChainProceed is emitted before an interceptor is dispatched.
type ChainProceed struct {
	Operation string
	Index     int
}

// ChainRetry is emitted when a chain restarts from interceptor 0.
type ChainRetry struct {
	Operation string
}

// ChainDeliver is emitted when a terminal outcome is handed to the
// delivery queue. Err is nil for success deliveries.
type ChainDeliver struct {
	Operation string
	Err       error
}
