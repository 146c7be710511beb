package interceptors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cache "github.com/gqlpipe/gqlpipe/internal/cache"
	chain "github.com/gqlpipe/gqlpipe/internal/chain"
	httptp "github.com/gqlpipe/gqlpipe/internal/httptp"
	language "github.com/gqlpipe/gqlpipe/internal/language"
	selection "github.com/gqlpipe/gqlpipe/internal/selection"
)

type heroResult struct {
	Hero struct {
		Name string `json:"name"`
	} `json:"hero"`
}

func heroOperation() *chain.Operation {
	return &chain.Operation{
		Name:     "Hero",
		Kind:     language.Query,
		Document: `query Hero { hero { name } }`,
		Selections: []selection.Selection{
			&selection.Field{
				Name: "hero",
				Type: selection.NamedType("Character"),
				Selections: []selection.Selection{
					&selection.Field{Name: "name", Type: selection.NonNullType(selection.NamedType("String"))},
				},
			},
		},
	}
}

func runPipeline(t *testing.T, pipeline []chain.Interceptor[heroResult], req *chain.Request, opts ...chain.Option[heroResult]) (*chain.Response[heroResult], error) {
	t.Helper()
	done := make(chan struct{})
	var gotResp *chain.Response[heroResult]
	var gotErr error
	c := chain.New(pipeline, opts...)
	c.KickOff(req, func(resp *chain.Response[heroResult], err error) {
		gotResp = resp
		gotErr = err
		close(done)
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not deliver")
	}
	return gotResp, gotErr
}

func TestPipeline_FetchParseAndCacheRoundTrip(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"data":{"hero":{"name":"R2-D2","__typename":"Droid"}}}`))
	}))
	defer srv.Close()

	tp := httptp.New()
	defer tp.Close()
	store, err := cache.NewLRUStore(8)
	require.NoError(t, err)

	newPipeline := func() []chain.Interceptor[heroResult] {
		return []chain.Interceptor[heroResult]{
			&CacheRead[heroResult]{Store: store},
			&Network[heroResult]{Transport: tp},
			&Parse[heroResult]{},
			&CacheWrite[heroResult]{Store: store},
		}
	}
	newRequest := func() *chain.Request {
		req := chain.NewRequest(context.Background(), heroOperation())
		req.Endpoint = srv.URL
		req.CachePolicy = chain.CacheFirst
		return req
	}

	resp, err := runPipeline(t, newPipeline(), newRequest())
	require.NoError(t, err)
	require.Equal(t, "R2-D2", resp.Result.Hero.Name)
	require.False(t, resp.FromCache)
	require.NotNil(t, resp.Normalized)
	require.Equal(t, int32(1), hits.Load())
	require.Equal(t, 1, store.Len())

	// Same operation again: served from the store, no second round trip.
	resp, err = runPipeline(t, newPipeline(), newRequest())
	require.NoError(t, err)
	require.Equal(t, "R2-D2", resp.Result.Hero.Name)
	require.True(t, resp.FromCache)
	require.Equal(t, int32(1), hits.Load())
}

func TestPipeline_NetworkOnlySkipsCacheRead(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"data":{"hero":{"name":"fresh"}}}`))
	}))
	defer srv.Close()

	tp := httptp.New()
	defer tp.Close()
	store, err := cache.NewLRUStore(8)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		req := chain.NewRequest(context.Background(), heroOperation())
		req.Endpoint = srv.URL
		req.CachePolicy = chain.NetworkOnly
		resp, err := runPipeline(t, []chain.Interceptor[heroResult]{
			&CacheRead[heroResult]{Store: store},
			&Network[heroResult]{Transport: tp},
			&Parse[heroResult]{},
			&CacheWrite[heroResult]{Store: store},
		}, req)
		require.NoError(t, err)
		require.False(t, resp.FromCache)
	}
	require.Equal(t, int32(2), hits.Load())
	require.Equal(t, 1, store.Len(), "network-only still writes back")
}

func TestPipeline_RetryOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":{"hero":{"name":"eventually"}}}`))
	}))
	defer srv.Close()

	tp := httptp.New()
	defer tp.Close()

	req := chain.NewRequest(context.Background(), heroOperation())
	req.Endpoint = srv.URL
	req.CachePolicy = chain.NoCache

	resp, err := runPipeline(t, []chain.Interceptor[heroResult]{
		&Network[heroResult]{Transport: tp},
		&Parse[heroResult]{},
	}, req, chain.WithErrorHandler[heroResult](&RetryHandler[heroResult]{MaxAttempts: 2}))
	require.NoError(t, err)
	require.Equal(t, "eventually", resp.Result.Hero.Name)
	require.Equal(t, int32(3), hits.Load())
}

func TestPipeline_RetryBudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "still broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tp := httptp.New()
	defer tp.Close()

	req := chain.NewRequest(context.Background(), heroOperation())
	req.Endpoint = srv.URL
	req.CachePolicy = chain.NoCache

	_, err := runPipeline(t, []chain.Interceptor[heroResult]{
		&Network[heroResult]{Transport: tp},
		&Parse[heroResult]{},
	}, req, chain.WithErrorHandler[heroResult](&RetryHandler[heroResult]{MaxAttempts: 1}))

	var statusErr *httptp.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.Status)
}

func TestRetryHandler_NonTransientErrorsPassThrough(t *testing.T) {
	h := &RetryHandler[heroResult]{MaxAttempts: 3}
	parseFailure := errors.New("interceptors: mapping result data")

	delivered := false
	h.HandleChainError(parseFailure, nil, nil, nil, func(resp *chain.Response[heroResult], err error) {
		delivered = true
		require.Equal(t, parseFailure, err)
	})
	require.True(t, delivered, "non-transient error must not consume a retry")
}

func TestParse_GraphQLErrorsWithoutData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null,"errors":[{"message":"hero unavailable"}]}`))
	}))
	defer srv.Close()

	tp := httptp.New()
	defer tp.Close()

	req := chain.NewRequest(context.Background(), heroOperation())
	req.Endpoint = srv.URL
	req.CachePolicy = chain.NoCache

	_, err := runPipeline(t, []chain.Interceptor[heroResult]{
		&Network[heroResult]{Transport: tp},
		&Parse[heroResult]{},
	}, req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "hero unavailable")
}

func TestParse_NoResponse(t *testing.T) {
	req := chain.NewRequest(context.Background(), heroOperation())
	_, err := runPipeline(t, []chain.Interceptor[heroResult]{
		&Parse[heroResult]{},
	}, req)
	require.ErrorIs(t, err, ErrNoResponseToParse)
}

func TestAuth_SetsBearerHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{"hero":{"name":"x"}}}`))
	}))
	defer srv.Close()

	tp := httptp.New()
	defer tp.Close()

	req := chain.NewRequest(context.Background(), heroOperation())
	req.Endpoint = srv.URL
	req.CachePolicy = chain.NoCache

	_, err := runPipeline(t, []chain.Interceptor[heroResult]{
		&Auth[heroResult]{Token: func(*chain.Request) (string, error) { return "s3cret", nil }},
		&Network[heroResult]{Transport: tp},
		&Parse[heroResult]{},
	}, req)
	require.NoError(t, err)
	require.Equal(t, "Bearer s3cret", gotAuth)
}

func TestAuth_ProviderFailureAbortsRequest(t *testing.T) {
	tokenErr := errors.New("token store sealed")
	req := chain.NewRequest(context.Background(), heroOperation())
	_, err := runPipeline(t, []chain.Interceptor[heroResult]{
		&Auth[heroResult]{Token: func(*chain.Request) (string, error) { return "", tokenErr }},
		&Parse[heroResult]{},
	}, req)
	require.ErrorIs(t, err, tokenErr)
}

func TestNetwork_CancelAbortsInFlightRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tp := httptp.New(httptp.WithRequestTimeout(time.Minute))
	defer tp.Close()

	req := chain.NewRequest(context.Background(), heroOperation())
	req.Endpoint = srv.URL
	req.CachePolicy = chain.NoCache

	var delivered atomic.Int32
	c := chain.New([]chain.Interceptor[heroResult]{
		&Network[heroResult]{Transport: tp},
		&Parse[heroResult]{},
	})
	c.KickOff(req, func(resp *chain.Response[heroResult], err error) {
		delivered.Add(1)
	})

	<-started
	c.Cancel()

	// The aborted round trip must not surface any callback.
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, delivered.Load())
}
