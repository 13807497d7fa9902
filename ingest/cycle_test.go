package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/bankrates/storage/memory"
	"github.com/sig-0/bankrates/storage/types"
)

func TestBootstrap(t *testing.T) {
	t.Parallel()

	t.Run("seeds empty storage", func(t *testing.T) {
		t.Parallel()

		var (
			ctx = context.Background()
			s   = memory.NewStorage()
			c   = &mockCollector{
				collectFn: func(_ context.Context) ([]*types.Quote, error) {
					return testQuotes(), nil
				},
			}
		)

		require.NoError(t, Bootstrap(ctx, c, NewMerger(s, nil), nil))

		rates, err := s.ListRates(ctx)
		require.NoError(t, err)

		assert.Len(t, rates, 2)
	})

	t.Run("collection failure merges nothing", func(t *testing.T) {
		t.Parallel()

		var (
			ctx        = context.Background()
			s          = memory.NewStorage()
			collectErr = errors.New("page 3 failed")
			c          = &mockCollector{
				collectFn: func(_ context.Context) ([]*types.Quote, error) {
					return nil, collectErr
				},
			}
		)

		err := Bootstrap(ctx, c, NewMerger(s, nil), nil)
		require.ErrorIs(t, err, collectErr)

		rates, err := s.ListRates(ctx)
		require.NoError(t, err)

		assert.Empty(t, rates)
	})
}

func TestUpdateJob(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		job := NewUpdateJob(&mockCollector{}, NewMerger(memory.NewStorage(), nil), 0, nil)

		assert.Equal(t, UpdateJobID, job.ID())
		assert.Equal(t, DefaultUpdateInterval, job.Interval())
	})

	t.Run("run updates stored rates", func(t *testing.T) {
		t.Parallel()

		var (
			ctx = context.Background()
			s   = memory.NewStorage()
			m   = NewMerger(s, nil)
		)

		_, err := m.BootstrapOrUpdate(ctx, testQuotes())
		require.NoError(t, err)

		c := &mockCollector{
			collectFn: func(_ context.Context) ([]*types.Quote, error) {
				quotes := testQuotes()
				quotes[1].EURSell = 104.5

				return quotes, nil
			},
		}

		job := NewUpdateJob(c, m, time.Minute, nil)
		require.NoError(t, job.Run(ctx))

		rate, err := s.RateByBank(ctx, "vtb")
		require.NoError(t, err)
		require.NotNil(t, rate)

		assert.Equal(t, 104.5, rate.EURSell)
	})

	t.Run("run does not bootstrap", func(t *testing.T) {
		t.Parallel()

		var (
			ctx = context.Background()
			s   = memory.NewStorage()
			c   = &mockCollector{
				collectFn: func(_ context.Context) ([]*types.Quote, error) {
					return testQuotes(), nil
				},
			}
		)

		require.NoError(t, NewUpdateJob(c, NewMerger(s, nil), time.Minute, nil).Run(ctx))

		rates, err := s.ListRates(ctx)
		require.NoError(t, err)

		assert.Empty(t, rates)
	})

	t.Run("scheduled through the scheduler", func(t *testing.T) {
		t.Parallel()

		var (
			ctx   = context.Background()
			s     = memory.NewStorage()
			m     = NewMerger(s, nil)
			ran   = make(chan struct{})
			calls int
		)

		_, err := m.BootstrapOrUpdate(ctx, testQuotes())
		require.NoError(t, err)

		c := &mockCollector{
			collectFn: func(_ context.Context) ([]*types.Quote, error) {
				calls++

				if calls == 1 {
					close(ran)
				}

				return testQuotes(), nil
			},
		}

		sched := NewScheduler(WithQueryInterval(time.Millisecond * 10))
		require.NoError(t, sched.Register(NewUpdateJob(c, m, time.Millisecond*20, nil)))

		startScheduler(t, sched)

		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for update job")
		}
	})
}
