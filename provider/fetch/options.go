package fetch

import (
	"log/slog"
	"net/http"
	"time"
)

type Option func(f *Fetcher)

// WithLogger specifies the logger for the fetcher
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithAttempts sets the total number of attempts per page (first try included)
func WithAttempts(attempts int) Option {
	return func(f *Fetcher) {
		if attempts > 0 {
			f.attempts = attempts
		}
	}
}

// WithBackoffBase sets the base backoff delay. The delay before
// the n-th retry is base * 2^n
func WithBackoffBase(base time.Duration) Option {
	return func(f *Fetcher) {
		f.backoffBase = base
	}
}

// WithJitter enables random jitter (0.5x to 1.5x) on backoff delays
func WithJitter(enabled bool) Option {
	return func(f *Fetcher) {
		f.jitter = enabled
	}
}

// WithTimeouts sets the total request timeout and the connect timeout
func WithTimeouts(request, connect time.Duration) Option {
	return func(f *Fetcher) {
		f.requestTimeout = request
		f.connectTimeout = connect
	}
}

// WithHTTPClient overrides the HTTP client. The timeouts are not applied to it
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// withSleep overrides the backoff wait, used in tests
func withSleep(sleep sleepFn) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}
