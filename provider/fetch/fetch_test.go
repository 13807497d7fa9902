package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder records the requested backoff delays without waiting
type sleepRecorder struct {
	delays []time.Duration
	mux    sync.Mutex
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	r.delays = append(r.delays, d)

	return ctx.Err()
}

// statusServer responds with the given statuses in order,
// repeating the last one
func statusServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}

		w.WriteHeader(statuses[n])

		if statuses[n] == http.StatusOK {
			_, _ = w.Write([]byte("<html>ok</html>"))
		}
	}))

	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("first attempt succeeds", func(t *testing.T) {
		t.Parallel()

		var (
			srv, calls = statusServer(t, http.StatusOK)
			rec        = &sleepRecorder{}
			f          = NewFetcher(withSleep(rec.sleep))
		)

		body, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.Equal(t, "<html>ok</html>", string(body))
		assert.Equal(t, int32(1), calls.Load())
		assert.Empty(t, rec.delays)
	})

	t.Run("transient failures are retried with backoff", func(t *testing.T) {
		t.Parallel()

		var (
			srv, calls = statusServer(
				t,
				http.StatusServiceUnavailable,
				http.StatusTooManyRequests,
				http.StatusOK,
			)
			rec = &sleepRecorder{}
			f   = NewFetcher(withSleep(rec.sleep))
		)

		body, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.NotEmpty(t, body)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		t.Parallel()

		var (
			srv, calls = statusServer(t, http.StatusInternalServerError)
			rec        = &sleepRecorder{}
			f          = NewFetcher(
				withSleep(rec.sleep),
				WithAttempts(4),
				WithBackoffBase(100*time.Millisecond),
			)
		)

		_, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrFetchExhausted)

		var exhausted *FetchExhaustedError
		require.ErrorAs(t, err, &exhausted)

		assert.Equal(t, 4, exhausted.Attempts)
		assert.Equal(t, srv.URL, exhausted.URL)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)

		assert.Equal(t, int32(4), calls.Load())
		assert.Equal(
			t,
			[]time.Duration{
				200 * time.Millisecond,
				400 * time.Millisecond,
				800 * time.Millisecond,
			},
			rec.delays,
		)
	})

	t.Run("non-retryable status fails immediately", func(t *testing.T) {
		t.Parallel()

		var (
			srv, calls = statusServer(t, http.StatusNotFound)
			rec        = &sleepRecorder{}
			f          = NewFetcher(withSleep(rec.sleep))
		)

		_, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)

		assert.NotErrorIs(t, err, ErrFetchExhausted)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

		assert.Equal(t, int32(1), calls.Load())
		assert.Empty(t, rec.delays)
	})

	t.Run("transport failures are retried", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		var (
			rec = &sleepRecorder{}
			f   = NewFetcher(withSleep(rec.sleep))
		)

		_, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)

		var exhausted *FetchExhaustedError
		require.ErrorAs(t, err, &exhausted)

		assert.Equal(t, DefaultAttempts, exhausted.Attempts)
		assert.Len(t, rec.delays, DefaultAttempts-1)
	})

	t.Run("malformed URL", func(t *testing.T) {
		t.Parallel()

		rec := &sleepRecorder{}

		for _, pageURL := range []string{"://broken", "ftp://ru.myfin.by/currency", "/currency"} {
			_, err := NewFetcher(withSleep(rec.sleep)).Fetch(context.Background(), pageURL)

			assert.ErrorIs(t, err, ErrInvalidURL)
		}

		assert.Empty(t, rec.delays)
	})

	t.Run("context cancelled during backoff", func(t *testing.T) {
		t.Parallel()

		var (
			srv, calls  = statusServer(t, http.StatusBadGateway)
			ctx, cancel = context.WithCancel(context.Background())
		)

		defer cancel()

		f := NewFetcher(withSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()

			return ctx.Err()
		}))

		_, err := f.Fetch(ctx, srv.URL)

		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestFetcher_Backoff(t *testing.T) {
	t.Parallel()

	t.Run("exponential", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(WithBackoffBase(time.Second))

		assert.Equal(t, 2*time.Second, f.backoff(1))
		assert.Equal(t, 4*time.Second, f.backoff(2))
		assert.Equal(t, 8*time.Second, f.backoff(3))
	})

	t.Run("jitter stays in bounds", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(WithBackoffBase(time.Second), WithJitter(true))

		for range 100 {
			delay := f.backoff(1)

			assert.GreaterOrEqual(t, delay, time.Second)
			assert.Less(t, delay, 3*time.Second)
		}
	})
}
