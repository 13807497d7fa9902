package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJobID = "test-job"

// newTestJob creates a job with the given ID and interval
func newTestJob(id string, interval time.Duration, runFn runDelegate) *mockJob {
	return &mockJob{
		idFn: func() string {
			return id
		},
		intervalFn: func() time.Duration {
			return interval
		},
		runFn: runFn,
	}
}

// startScheduler runs the scheduler until the test ends
func startScheduler(t *testing.T, s *Scheduler) {
	t.Helper()

	var (
		ctx, cancel = context.WithCancel(context.Background())
		errCh       = make(chan error, 1)
	)

	go func() {
		errCh <- s.Start(ctx)
	}()

	t.Cleanup(func() {
		cancel()

		assert.NoError(t, <-errCh)
	})
}

func TestScheduler_New(t *testing.T) {
	t.Parallel()

	t.Run("default scheduler", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler()

		require.NotNil(t, s)

		assert.NotNil(t, s.logger)
		assert.Equal(t, time.Second, s.queryInterval)
	})

	t.Run("query interval", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(WithQueryInterval(time.Minute))

		require.NotNil(t, s)
		assert.Equal(t, time.Minute, s.queryInterval)
	})
}

func TestScheduler_Register(t *testing.T) {
	t.Parallel()

	t.Run("nil job", func(t *testing.T) {
		t.Parallel()

		assert.ErrorIs(t, NewScheduler().Register(nil), errInvalidJob)
	})

	t.Run("empty ID", func(t *testing.T) {
		t.Parallel()

		job := newTestJob("", time.Hour, nil)

		assert.ErrorIs(t, NewScheduler().Register(job), errInvalidJob)
	})

	t.Run("zero interval", func(t *testing.T) {
		t.Parallel()

		job := newTestJob(testJobID, 0, nil)

		assert.ErrorIs(t, NewScheduler().Register(job), errInvalidInterval)
	})

	t.Run("negative interval", func(t *testing.T) {
		t.Parallel()

		job := newTestJob(testJobID, -time.Hour, nil)

		assert.ErrorIs(t, NewScheduler().Register(job), errInvalidInterval)
	})

	t.Run("first run is one interval away", func(t *testing.T) {
		t.Parallel()

		var (
			s      = NewScheduler()
			before = time.Now().UTC()
		)

		require.NoError(t, s.Register(newTestJob(testJobID, time.Hour, nil)))
		require.Equal(t, 1, s.q.Len())

		scheduled := s.q.Index(0)
		assert.False(t, scheduled.at.Before(before.Add(time.Hour)))
		assert.Nil(t, s.nextRun())
	})

	t.Run("same ID replaces registration", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler()

		require.NoError(t, s.Register(newTestJob(testJobID, time.Hour, nil)))

		first := s.lookup(testJobID, s.q.Index(0).generation)
		require.NotNil(t, first)

		require.NoError(t, s.Register(newTestJob(testJobID, time.Hour, nil)))

		// Only a single registration is kept
		var count int

		s.registeredJobs.Range(func(_, _ any) bool {
			count++

			return true
		})

		assert.Equal(t, 1, count)

		// The replaced registration is stale
		assert.Nil(t, s.lookup(testJobID, first.generation))
	})
}

func TestScheduler_Start(t *testing.T) {
	t.Parallel()

	t.Run("ctx canceled", func(t *testing.T) {
		t.Parallel()

		var (
			s     = NewScheduler(WithQueryInterval(time.Millisecond * 10))
			errCh = make(chan error, 1)
		)

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			errCh <- s.Start(ctx)
		}()

		cancel()

		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("scheduler did not shut down in time")
		}
	})

	t.Run("job rescheduled after run", func(t *testing.T) {
		t.Parallel()

		var (
			runCount atomic.Int32
			runsDone = make(chan struct{})

			s   = NewScheduler(WithQueryInterval(time.Millisecond * 10))
			job = newTestJob(testJobID, time.Millisecond*50, func(_ context.Context) error {
				if runCount.Add(1) == 2 {
					close(runsDone)
				}

				return nil
			})
		)

		require.NoError(t, s.Register(job))
		startScheduler(t, s)

		select {
		case <-runsDone:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for reschedule")
		}

		assert.GreaterOrEqual(t, runCount.Load(), int32(2))
	})

	t.Run("failed run is retried on the next tick", func(t *testing.T) {
		t.Parallel()

		var (
			runCount  atomic.Int32
			retryDone = make(chan struct{})

			s   = NewScheduler(WithQueryInterval(time.Millisecond * 10))
			job = newTestJob(testJobID, time.Millisecond*50, func(_ context.Context) error {
				if runCount.Add(1) == 2 {
					close(retryDone)
				}

				return errors.New("collection failed")
			})
		)

		require.NoError(t, s.Register(job))
		startScheduler(t, s)

		select {
		case <-retryDone:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for retry")
		}
	})

	t.Run("runs never overlap", func(t *testing.T) {
		t.Parallel()

		var (
			running    atomic.Int32
			overlapped atomic.Bool
			runCount   atomic.Int32
			runsDone   = make(chan struct{})

			s   = NewScheduler(WithQueryInterval(time.Millisecond * 5))
			job = newTestJob(testJobID, time.Millisecond*10, func(_ context.Context) error {
				if running.Add(1) > 1 {
					overlapped.Store(true)
				}

				// Run for longer than the interval
				time.Sleep(30 * time.Millisecond)

				running.Add(-1)

				if runCount.Add(1) == 3 {
					close(runsDone)
				}

				return nil
			})
		)

		require.NoError(t, s.Register(job))
		startScheduler(t, s)

		select {
		case <-runsDone:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for runs")
		}

		assert.False(t, overlapped.Load())
	})

	t.Run("replaced job never runs again", func(t *testing.T) {
		t.Parallel()

		var (
			oldRuns atomic.Int32
			newRuns atomic.Int32
			newDone = make(chan struct{})

			s = NewScheduler(WithQueryInterval(time.Millisecond * 10))

			oldJob = newTestJob(testJobID, time.Millisecond*20, func(_ context.Context) error {
				oldRuns.Add(1)

				return nil
			})
			newJob = newTestJob(testJobID, time.Millisecond*20, func(_ context.Context) error {
				if newRuns.Add(1) == 3 {
					close(newDone)
				}

				return nil
			})
		)

		require.NoError(t, s.Register(oldJob))
		require.NoError(t, s.Register(newJob))

		startScheduler(t, s)

		select {
		case <-newDone:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for replacement runs")
		}

		assert.Zero(t, oldRuns.Load())
	})

	t.Run("removed job stops running", func(t *testing.T) {
		t.Parallel()

		var (
			runCount atomic.Int32
			firstRun = make(chan struct{})

			s   = NewScheduler(WithQueryInterval(time.Millisecond * 10))
			job = newTestJob(testJobID, time.Millisecond*20, func(_ context.Context) error {
				if runCount.Add(1) == 1 {
					close(firstRun)
				}

				return nil
			})
		)

		require.NoError(t, s.Register(job))
		startScheduler(t, s)

		select {
		case <-firstRun:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for first run")
		}

		assert.True(t, s.Remove(testJobID))
		assert.False(t, s.Remove(testJobID))

		// At most one in-flight run may still complete
		countAfterRemove := runCount.Load()

		time.Sleep(150 * time.Millisecond)

		assert.LessOrEqual(t, runCount.Load(), countAfterRemove+1)
	})

	t.Run("multiple jobs", func(t *testing.T) {
		t.Parallel()

		var (
			ranA, ranB = make(chan struct{}), make(chan struct{})
			onceA      atomic.Bool
			onceB      atomic.Bool

			s = NewScheduler(WithQueryInterval(time.Millisecond * 10))
		)

		require.NoError(t, s.Register(newTestJob("job-a", time.Millisecond*20, func(_ context.Context) error {
			if onceA.CompareAndSwap(false, true) {
				close(ranA)
			}

			return nil
		})))

		require.NoError(t, s.Register(newTestJob("job-b", time.Millisecond*30, func(_ context.Context) error {
			if onceB.CompareAndSwap(false, true) {
				close(ranB)
			}

			return nil
		})))

		startScheduler(t, s)

		for _, ch := range []chan struct{}{ranA, ranB} {
			select {
			case <-ch:
			case <-time.After(5 * time.Second):
				t.Fatal("timeout waiting for jobs")
			}
		}
	})
}
