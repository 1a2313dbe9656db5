package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scorewatch/scorewatch/internal/platform/logging"
	"github.com/scorewatch/scorewatch/internal/platform/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, cfg ClientConfig) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.Logger = logging.NewNop()
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = srv.Client()
	}
	return NewClient(cfg), srv
}

func TestFetchScoreboardReturnsBody(t *testing.T) {
	var gotUserAgent atomic.Value
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent.Store(r.Header.Get("user-agent"))
		w.Write([]byte(`{"events":[]}`))
	}), ClientConfig{UserAgent: "scorewatch/1.0"})

	raw, err := client.FetchScoreboard(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"events":[]}`, string(raw))
	assert.Equal(t, "scorewatch/1.0", gotUserAgent.Load())
}

func TestFetchScoreboardRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"events":[]}`))
	}), ClientConfig{MaxRetries: 2})

	raw, err := client.FetchScoreboard(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"events":[]}`, string(raw))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchScoreboardDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}), ClientConfig{MaxRetries: 3})

	_, err := client.FetchScoreboard(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchScoreboardCircuitOpensOnRepeatedFailure(t *testing.T) {
	var calls atomic.Int32
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), ClientConfig{
		MaxRetries: 0,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 2; i++ {
		_, err := client.FetchScoreboard(context.Background(), srv.URL)
		require.Error(t, err)
	}

	_, err := client.FetchScoreboard(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load(), "open circuit short-circuits before the request")
	assert.Equal(t, resilience.CircuitStateOpen, client.breaker.State())
}

func TestFetchScoreboardHonorsContextCancel(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), ClientConfig{MaxRetries: 5})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := client.FetchScoreboard(ctx, srv.URL)
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("fetch did not return after context cancellation")
	}
}

func TestRedactScoreboardURL(t *testing.T) {
	got := redactScoreboardURL("https://example.com/scoreboard?league=eng.1&api_token=secret")
	require.NotContains(t, got, "secret")
	require.Contains(t, got, "api_token=REDACTED")
	require.Contains(t, got, "league=eng.1")

	plain := "https://example.com/scoreboard"
	require.Equal(t, plain, redactScoreboardURL(plain))
}
