package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultAttempts       = 3
	DefaultBackoffBase    = time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second

	maxBodySize = 10 << 20 // 10 MiB
)

var ErrInvalidURL = errors.New("invalid page URL")

type sleepFn func(context.Context, time.Duration) error

// Fetcher downloads single pages of markup, retrying
// transient failures with exponential backoff
type Fetcher struct {
	logger *slog.Logger
	client *http.Client
	sleep  sleepFn

	userAgent      string
	attempts       int
	backoffBase    time.Duration
	requestTimeout time.Duration
	connectTimeout time.Duration
	jitter         bool
}

// NewFetcher creates a new page fetcher
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		sleep:          sleepCtx,
		attempts:       DefaultAttempts,
		backoffBase:    DefaultBackoffBase,
		requestTimeout: DefaultRequestTimeout,
		connectTimeout: DefaultConnectTimeout,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = newClient(f.requestTimeout, f.connectTimeout)
	}

	return f
}

// Fetch fetches the raw markup of the given page.
// Transport failures, timeouts and 5xx / 429 responses are retried,
// anything else fails right away
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}

	var lastErr error

	for attempt := 0; attempt < f.attempts; attempt++ {
		if attempt > 0 {
			delay := f.backoff(attempt)

			f.logger.Debug(
				"retrying page fetch",
				"url", pageURL,
				"attempt", attempt+1,
				"backoff", delay,
			)

			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, err := f.fetchOnce(ctx, u.String())
		if err == nil {
			return body, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if !isRetryable(err) {
			return nil, err
		}

		f.logger.Warn(
			"page fetch attempt failed",
			"url", pageURL,
			"attempt", attempt+1,
			"err", err,
		)

		lastErr = err
	}

	return nil, &FetchExhaustedError{
		URL:      pageURL,
		Attempts: f.attempts,
		Err:      lastErr,
	}
}

// backoff returns the delay before the given retry (base * 2^retry)
func (f *Fetcher) backoff(retry int) time.Duration {
	delay := f.backoffBase * time.Duration(1<<retry)

	if f.jitter && delay > 0 {
		delay = delay/2 + time.Duration(rand.Int64N(int64(delay)))
	}

	return delay
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}

	req.Header.Set("Accept", "text/html")

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute request: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

		return nil, &StatusError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response: %w", err)
	}

	return body, nil
}

// isRetryable returns true for transient failures.
// Anything that is not a status error is a transport failure
func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.IsRetryable()
	}

	return true
}

func newClient(requestTimeout, connectTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib default

	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &http.Client{
		Timeout:   requestTimeout,
		Transport: transport,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
