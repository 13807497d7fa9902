package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/bankrates/config"
	"github.com/sig-0/bankrates/ingest"
	"github.com/sig-0/bankrates/provider/fetch"
	"github.com/sig-0/bankrates/provider/myfin"
	"github.com/sig-0/bankrates/server"
	"github.com/sig-0/bankrates/storage"
)

// newCollector creates the listing collector from the ingest config
func newCollector(cfg *config.Ingest, logger *slog.Logger) (*myfin.Collector, error) {
	fetcher := fetch.NewFetcher(
		fetch.WithLogger(logger),
		fetch.WithAttempts(cfg.Attempts),
		fetch.WithBackoffBase(cfg.BackoffBase),
		fetch.WithJitter(cfg.Jitter),
		fetch.WithTimeouts(cfg.RequestTimeout, cfg.ConnectTimeout),
		fetch.WithUserAgent(cfg.UserAgent),
	)

	parser, err := myfin.NewParser(cfg.SiteBase, logger)
	if err != nil {
		return nil, fmt.Errorf("unable to create listing parser: %w", err)
	}

	return myfin.NewCollector(
		fetcher,
		parser,
		myfin.WithLogger(logger),
		myfin.WithPages(myfin.ListingPages(cfg.SiteBase, cfg.PageCount)),
		myfin.WithConcurrency(cfg.Concurrency),
	), nil
}

// run runs the startup ingest cycle, and then serves the API
// alongside the recurring update job until interrupted
func run(
	ctx context.Context,
	cfg *config.Config,
	store storage.Storage,
	logger *slog.Logger,
) error {
	if err := config.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration, %w", err)
	}

	collector, err := newCollector(cfg.Ingest, logger)
	if err != nil {
		return err
	}

	merger := ingest.NewMerger(store, logger)

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	defer cancelFn()

	// The API only serves once the startup cycle completed
	if err = ingest.Bootstrap(runCtx, collector, merger, logger); err != nil {
		return fmt.Errorf("startup ingest cycle failed: %w", err)
	}

	// Create the scheduler, with the recurring update job
	scheduler := ingest.NewScheduler(ingest.WithLogger(logger))

	updateJob := ingest.NewUpdateJob(collector, merger, cfg.Ingest.UpdateInterval, logger)
	if err = scheduler.Register(updateJob); err != nil {
		return fmt.Errorf("unable to register update job: %w", err)
	}

	// Create the server instance
	s, err := server.New(
		store,
		server.WithLogger(logger),
		server.WithConfig(cfg),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the ingestion service
	group.Go(func() error {
		return scheduler.Start(gCtx)
	})

	return group.Wait()
}
