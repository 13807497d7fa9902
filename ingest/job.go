package ingest

import (
	"context"
	"time"
)

// Job is a single recurring scheduler job
type Job interface {
	// ID returns the stable job identifier. Registering a job
	// with an existing ID replaces the earlier registration
	ID() string

	// Interval returns the interval between two job runs
	Interval() time.Duration

	// Run is the job's main routine
	Run(context.Context) error
}
