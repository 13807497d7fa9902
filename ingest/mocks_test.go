package ingest

import (
	"context"
	"time"

	"github.com/sig-0/bankrates/storage/types"
)

type (
	idDelegate       func() string
	intervalDelegate func() time.Duration
	runDelegate      func(context.Context) error
)

type mockJob struct {
	idFn       idDelegate
	intervalFn intervalDelegate
	runFn      runDelegate
}

func (m *mockJob) ID() string {
	if m.idFn != nil {
		return m.idFn()
	}

	return ""
}

func (m *mockJob) Interval() time.Duration {
	if m.intervalFn != nil {
		return m.intervalFn()
	}

	return 0
}

func (m *mockJob) Run(ctx context.Context) error {
	if m.runFn != nil {
		return m.runFn(ctx)
	}

	return nil
}

type collectDelegate func(context.Context) ([]*types.Quote, error)

type mockCollector struct {
	collectFn collectDelegate
}

func (m *mockCollector) Collect(ctx context.Context) ([]*types.Quote, error) {
	if m.collectFn != nil {
		return m.collectFn(ctx)
	}

	return nil, nil
}
