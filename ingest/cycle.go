package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sig-0/bankrates/storage/types"
)

const (
	// UpdateJobID is the stable ID of the recurring rate update job
	UpdateJobID = "currency_update_job"

	// DefaultUpdateInterval is the default rate update interval
	DefaultUpdateInterval = 10 * time.Minute
)

// LevelCritical marks failures that abort a whole ingest cycle
const LevelCritical = slog.LevelError + 4

// Collector collects the current quotes of all banks
type Collector interface {
	Collect(context.Context) ([]*types.Quote, error)
}

type mergeFn func(context.Context, []*types.Quote) (int64, error)

// Bootstrap runs the startup ingest cycle, seeding
// an empty storage or updating a populated one
func Bootstrap(ctx context.Context, c Collector, m *Merger, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return runCycle(ctx, logger, "startup", c, m.BootstrapOrUpdate)
}

// UpdateJob is the recurring job collecting fresh quotes
// and updating the stored rates
type UpdateJob struct {
	collector Collector
	merger    *Merger
	logger    *slog.Logger
	interval  time.Duration
}

// NewUpdateJob creates a new rate update job
func NewUpdateJob(c Collector, m *Merger, interval time.Duration, logger *slog.Logger) *UpdateJob {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if interval <= 0 {
		interval = DefaultUpdateInterval
	}

	return &UpdateJob{
		collector: c,
		merger:    m,
		logger:    logger,
		interval:  interval,
	}
}

func (j *UpdateJob) ID() string {
	return UpdateJobID
}

func (j *UpdateJob) Interval() time.Duration {
	return j.interval
}

func (j *UpdateJob) Run(ctx context.Context) error {
	return runCycle(ctx, j.logger, "update", j.collector, j.merger.Update)
}

// runCycle collects the quotes and merges them.
// A failed collection merges nothing
func runCycle(
	ctx context.Context,
	logger *slog.Logger,
	kind string,
	c Collector,
	merge mergeFn,
) error {
	logger = logger.With(
		"cycle", uuid.NewString(),
		"kind", kind,
	)

	start := time.Now()

	quotes, err := c.Collect(ctx)
	if err != nil {
		logger.Log(ctx, LevelCritical, "unable to collect quotes", "err", err)

		return fmt.Errorf("unable to collect quotes: %w", err)
	}

	affected, err := merge(ctx, quotes)
	if err != nil {
		logger.Error("unable to merge quotes", "err", err)

		return fmt.Errorf("unable to merge quotes: %w", err)
	}

	logger.Info(
		"ingest cycle completed",
		"quotes", len(quotes),
		"affected", affected,
		"duration", time.Since(start),
	)

	return nil
}
