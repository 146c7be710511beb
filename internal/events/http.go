package events

import "time"

// HTTPRequestStart is emitted before an outgoing transport request.
type HTTPRequestStart struct {
	Operation string
	Endpoint  string
}

// HTTPRequestFinish is emitted after the transport round trip.
type HTTPRequestFinish struct {
	Operation string
	Endpoint  string
	Status    int
	Err       error
	Duration  time.Duration
}
