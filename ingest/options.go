package ingest

import (
	"log/slog"
	"time"
)

type Option func(s *Scheduler)

// WithLogger specifies the logger for the scheduler
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithQueryInterval specifies how often the scheduler checks for due jobs.
// Defaults to 1s.
// This should only be modified if the registered jobs
// have sparse runs (once every hour / 24hrs)
func WithQueryInterval(q time.Duration) Option {
	return func(s *Scheduler) {
		s.queryInterval = q
	}
}
