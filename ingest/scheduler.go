package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"
)

var (
	errInvalidJob      = errors.New("invalid job")
	errInvalidInterval = errors.New("invalid interval")
)

// registration is a single registered job,
// tagged with a unique generation
type registration struct {
	job        Job
	generation xid.ID
}

// Scheduler is the recurring job scheduler.
// Jobs are keyed by their ID, and a job is only rescheduled
// once its previous run completed
type Scheduler struct {
	logger *slog.Logger

	registeredJobs sync.Map // job ID -> *registration

	q             iq.Queue[scheduledRun]
	queryInterval time.Duration
	qMux          sync.Mutex
}

// NewScheduler creates a new Scheduler instance
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		q:             iq.NewQueue[scheduledRun](),
		queryInterval: time.Second, // every second
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register registers a new job with the scheduler.
// If a job with the same ID is already registered, it is replaced,
// and the replaced job is never run again.
// The first run is due one interval from now
func (s *Scheduler) Register(job Job) error {
	if job == nil || job.ID() == "" {
		return errInvalidJob
	}

	if job.Interval() <= 0 {
		return errInvalidInterval
	}

	reg := &registration{
		job:        job,
		generation: xid.New(),
	}

	// Register the job, replacing any previous registration
	_, replaced := s.registeredJobs.Swap(job.ID(), reg)

	s.logger.Info(
		"registered job",
		"id", job.ID(),
		"interval", job.Interval(),
		"replaced", replaced,
	)

	// Schedule the first run
	s.scheduleRun(
		time.Now().UTC().Add(job.Interval()),
		job.ID(),
		reg.generation,
	)

	return nil
}

// Remove deregisters the job with the given ID.
// Returns false if no such job was registered
func (s *Scheduler) Remove(id string) bool {
	_, removed := s.registeredJobs.LoadAndDelete(id)

	if removed {
		s.logger.Info("removed job", "id", id)
	}

	return removed
}

// Start starts the job scheduling service loop [BLOCKING]
func (s *Scheduler) Start(ctx context.Context) error {
	collectorCh := make(chan *workerResponse, 100)

	// Start a listener for monitoring jobs
	ticker := time.NewTicker(s.queryInterval)
	defer ticker.Stop()

	// handleRuns initializes all runs that are executable (due)
	handleRuns := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				next := s.nextRun()
				if next == nil {
					return // nothing to run anymore
				}

				reg := s.lookup(next.jobID, next.generation)
				if reg == nil {
					s.logger.Debug(
						"dropping stale run",
						"id", next.jobID,
					)

					continue
				}

				s.logger.Info(
					"running job",
					"id", next.jobID,
				)

				// Spawn worker
				info := &workerInfo{
					job:        reg.job,
					generation: reg.generation,
					resCh:      collectorCh,
				}

				go handleJob(ctx, info)
			}
		}
	}

	// Initialize the first set of due runs
	handleRuns()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler service shut down")

			return nil
		case <-ticker.C:
			handleRuns()
		case response := <-collectorCh:
			now := time.Now().UTC()

			reg := s.lookup(response.jobID, response.generation)
			if reg == nil {
				// The job was removed or replaced while running
				s.logger.Debug(
					"dropping result of stale job run",
					"id", response.jobID,
					"generation", response.generation.String(),
				)

				continue
			}

			if response.error != nil {
				// The next run is the retry
				s.logger.Error(
					"job run failed",
					"id", response.jobID,
					"duration", response.duration,
					"err", response.error,
				)
			} else {
				s.logger.Info(
					"job run completed",
					"id", response.jobID,
					"duration", response.duration,
				)
			}

			// Schedule the next run for this job
			s.scheduleRun(
				now.Add(reg.job.Interval()),
				response.jobID,
				reg.generation,
			)
		}
	}
}

// lookup fetches the active registration for the job,
// if it matches the given generation
func (s *Scheduler) lookup(id string, generation xid.ID) *registration {
	regRaw, ok := s.registeredJobs.Load(id)
	if !ok {
		return nil
	}

	reg, _ := regRaw.(*registration)
	if reg == nil || reg.generation != generation {
		return nil
	}

	return reg
}

// scheduleRun schedules a new job run
func (s *Scheduler) scheduleRun(
	at time.Time,
	jobID string,
	generation xid.ID,
) {
	s.qMux.Lock()
	defer s.qMux.Unlock()

	s.q.Push(scheduledRun{
		at:         at,
		jobID:      jobID,
		generation: generation,
	})
}

// nextRun fetches the next due run, as of the moment of calling
func (s *Scheduler) nextRun() *scheduledRun {
	s.qMux.Lock()
	defer s.qMux.Unlock()

	now := time.Now().UTC()

	// Check if anything needs to be run
	if s.q.Len() == 0 {
		return nil // nothing to run, all jobs are running
	}

	// Check if the top element is due
	if s.q.Index(0).at.After(now) {
		return nil // nothing to run, earliest run is in the future
	}

	// Grab the next run
	return s.q.PopFront()
}
