package httptp

import (
	"net/http"
	"time"
)

// Options configures the HTTP transport behavior.
//
// Defaults:
// - RequestTimeout:      10s (used only if incoming context has no deadline)
// - MaxIdleConnsPerHost: 4
// - UserAgent:           "gqlpipe"
//
// All options are safe to leave zero-valued to use defaults.

type Options struct {
	RequestTimeout      time.Duration
	MaxIdleConnsPerHost int
	UserAgent           string

	// Client overrides the pooled default client entirely.
	Client *http.Client
}

// Option mutates Options
//
// Use WithX helpers below.

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		RequestTimeout:      10 * time.Second,
		MaxIdleConnsPerHost: 4,
		UserAgent:           "gqlpipe",
	}
}

func WithRequestTimeout(d time.Duration) Option { return func(o *Options) { o.RequestTimeout = d } }

func WithMaxIdleConnsPerHost(n int) Option {
	return func(o *Options) { o.MaxIdleConnsPerHost = n }
}

func WithUserAgent(ua string) Option { return func(o *Options) { o.UserAgent = ua } }

func WithClient(client *http.Client) Option { return func(o *Options) { o.Client = client } }
