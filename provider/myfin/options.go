package myfin

import "log/slog"

type Option func(c *Collector)

// WithLogger specifies the logger for the collector
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = l
	}
}

// WithPages overrides the listing page URLs
func WithPages(pages []string) Option {
	return func(c *Collector) {
		c.pages = pages
	}
}

// WithConcurrency caps the number of pages fetched at once
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.concurrency = n
		}
	}
}
