package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/dossier"
	dossierhttp "github.com/fwojciec/dossier/http"
	"github.com/fwojciec/dossier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "DossierTest/1.0 (test@example.com)"

var fastDelays = []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}

func newFetcher(t *testing.T, opts ...dossierhttp.Option) *dossierhttp.Fetcher {
	t.Helper()
	opts = append([]dossierhttp.Option{dossierhttp.WithRetryDelays(fastDelays)}, opts...)
	f, err := dossierhttp.NewFetcher(testUserAgent, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestNewFetcher(t *testing.T) {
	t.Parallel()

	t.Run("rejects user agent without contact marker", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		f, err := dossierhttp.NewFetcher("DossierTest/1.0 test.example.com")

		require.Error(t, err)
		assert.Nil(t, f)
		assert.Equal(t, dossier.EINVALID, dossier.ErrorCode(err))
		assert.Zero(t, hits.Load(), "no request may be issued")
	})

	t.Run("rejects empty user agent", func(t *testing.T) {
		t.Parallel()

		_, err := dossierhttp.NewFetcher("")
		assert.Equal(t, dossier.EINVALID, dossier.ErrorCode(err))
	})
}

func TestBackoffDelays(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second},
		dossierhttp.DefaultRetryDelays(),
	)
	assert.Equal(t,
		[]time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond},
		dossierhttp.BackoffDelays(10*time.Millisecond, 3),
	)
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body and sends the contact header", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte(`{"cik":"320193"}`))
		}))
		defer server.Close()

		body, err := newFetcher(t).Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.JSONEq(t, `{"cik":"320193"}`, string(body))
		assert.Equal(t, testUserAgent, gotUA)
	})

	t.Run("retries 429 with growing backoff then succeeds", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) <= 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		var mu sync.Mutex
		var waits []time.Duration
		f := newFetcher(t,
			dossierhttp.WithRetryDelays(dossierhttp.BackoffDelays(time.Millisecond, 4)),
			dossierhttp.WithRetryHook(func(_ string, _ int, wait time.Duration, err error) {
				mu.Lock()
				defer mu.Unlock()
				assert.Equal(t, dossier.ERATELIMITED, dossier.ErrorCode(err))
				waits = append(waits, wait)
			}),
		)

		body, err := f.Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "ok", string(body))
		assert.Equal(t, int32(4), hits.Load())
		require.Len(t, waits, 3, "exactly three retries")
		assert.Less(t, waits[0], waits[1])
		assert.Less(t, waits[1], waits[2])
	})

	t.Run("exhausted 429 retries surface rate limited", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newFetcher(t).Fetch(context.Background(), server.URL)

		require.Error(t, err)
		assert.Equal(t, dossier.ERATELIMITED, dossier.ErrorCode(err))
		assert.Equal(t, int32(len(fastDelays)+1), hits.Load())
	})

	t.Run("exhausted 503 retries surface unreachable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newFetcher(t).Fetch(context.Background(), server.URL)

		require.Error(t, err)
		assert.Equal(t, dossier.EUNREACHABLE, dossier.ErrorCode(err))
		assert.Contains(t, dossier.ErrorMessage(err), "503")
	})

	t.Run("other 4xx fail immediately as rejected", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newFetcher(t).Fetch(context.Background(), server.URL)

		require.Error(t, err)
		assert.Equal(t, dossier.EREJECTED, dossier.ErrorCode(err))
		assert.Contains(t, dossier.ErrorMessage(err), "404")
		assert.Equal(t, int32(1), hits.Load(), "rejected requests are not retried")
	})

	t.Run("timeouts are retried as transient failures", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				time.Sleep(100 * time.Millisecond)
			}
			_, _ = w.Write([]byte("late"))
		}))
		defer server.Close()

		body, err := newFetcher(t, dossierhttp.WithTimeout(20*time.Millisecond)).Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "late", string(body))
		assert.GreaterOrEqual(t, hits.Load(), int32(2))
	})

	t.Run("unreachable host surfaces unreachable", func(t *testing.T) {
		t.Parallel()

		f := newFetcher(t, dossierhttp.WithTimeout(100*time.Millisecond))

		_, err := f.Fetch(context.Background(), "http://non-existent-host.invalid/page")

		require.Error(t, err)
		assert.Equal(t, dossier.EUNREACHABLE, dossier.ErrorCode(err))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newFetcher(t).Fetch(ctx, server.URL)

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("every attempt waits on the limiter", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		var waits atomic.Int32
		limiter := &mock.RateLimiter{
			WaitFn: func(ctx context.Context) error {
				waits.Add(1)
				return nil
			},
		}

		_, err := newFetcher(t, dossierhttp.WithLimiter(limiter)).Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, int32(2), waits.Load())
	})
}

func TestFetcher_Stream(t *testing.T) {
	t.Parallel()

	t.Run("streams the body", func(t *testing.T) {
		t.Parallel()

		payload := strings.Repeat("x", 1<<20)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(payload))
		}))
		defer server.Close()

		body, err := newFetcher(t).Stream(context.Background(), server.URL)
		require.NoError(t, err)
		defer body.Close()

		n, err := io.Copy(io.Discard, body)
		require.NoError(t, err)
		assert.Equal(t, int64(len(payload)), n)
	})

	t.Run("uses fallback when provider forbids plain requests", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		fallback := &mock.Fetcher{
			StreamFn: func(ctx context.Context, url string) (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader("<html>rendered</html>")), nil
			},
			CloseFn: func() error { return nil },
		}

		body, err := newFetcher(t, dossierhttp.WithFallback(fallback)).Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "<html>rendered</html>", string(body))
	})

	t.Run("fallback failure stays rejected", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		fallback := &mock.Fetcher{
			StreamFn: func(ctx context.Context, url string) (io.ReadCloser, error) {
				return nil, assert.AnError
			},
			CloseFn: func() error { return nil },
		}

		_, err := newFetcher(t, dossierhttp.WithFallback(fallback)).Fetch(context.Background(), server.URL)

		assert.Equal(t, dossier.EREJECTED, dossier.ErrorCode(err))
	})
}

func TestFetcher_Fetch_BodyFailures(t *testing.T) {
	t.Parallel()

	t.Run("stalled body is retried", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				_, _ = w.Write([]byte("<html>partial"))
				w.(http.Flusher).Flush()
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
				return
			}
			_, _ = w.Write([]byte("<html>complete</html>"))
		}))
		defer server.Close()

		var retried []error
		f := newFetcher(t,
			dossierhttp.WithTimeout(100*time.Millisecond),
			dossierhttp.WithRetryHook(func(_ string, _ int, _ time.Duration, err error) {
				retried = append(retried, err)
			}),
		)

		body, err := f.Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "<html>complete</html>", string(body))
		assert.Equal(t, int32(2), hits.Load())
		require.Len(t, retried, 1)
		assert.Equal(t, dossier.EUNREACHABLE, dossier.ErrorCode(retried[0]))
	})

	t.Run("not found bypasses fallback", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		var fallbackCalls atomic.Int32
		fallback := &mock.Fetcher{
			StreamFn: func(ctx context.Context, url string) (io.ReadCloser, error) {
				fallbackCalls.Add(1)
				return io.NopCloser(strings.NewReader("<html>chrome error page</html>")), nil
			},
			CloseFn: func() error { return nil },
		}

		_, err := newFetcher(t, dossierhttp.WithFallback(fallback)).Fetch(context.Background(), server.URL)

		assert.Equal(t, dossier.EREJECTED, dossier.ErrorCode(err))
		assert.Contains(t, dossier.ErrorMessage(err), "404")
		assert.Zero(t, fallbackCalls.Load())
	})
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		code   string
	}{
		{http.StatusTooManyRequests, dossier.ERATELIMITED},
		{http.StatusServiceUnavailable, dossier.EUNREACHABLE},
		{http.StatusNotFound, dossier.EREJECTED},
		{http.StatusForbidden, dossier.EREJECTED},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.code, dossier.ErrorCode(dossierhttp.StatusError(tt.status, "https://example.test")))
		})
	}
}
