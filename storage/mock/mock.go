package mock

import (
	"context"

	"github.com/sig-0/bankrates/storage"
	"github.com/sig-0/bankrates/storage/types"
)

type (
	BeginDelegate      func(context.Context) (storage.Tx, error)
	ListRatesDelegate  func(context.Context) ([]*types.StoredRate, error)
	RateByBankDelegate func(context.Context, string) (*types.StoredRate, error)
)

type Storage struct {
	BeginFn      BeginDelegate
	ListRatesFn  ListRatesDelegate
	RateByBankFn RateByBankDelegate
}

func (m *Storage) Begin(ctx context.Context) (storage.Tx, error) {
	if m.BeginFn != nil {
		return m.BeginFn(ctx)
	}

	return &Tx{}, nil
}

func (m *Storage) ListRates(ctx context.Context) ([]*types.StoredRate, error) {
	if m.ListRatesFn != nil {
		return m.ListRatesFn(ctx)
	}

	return nil, nil
}

func (m *Storage) RateByBank(ctx context.Context, key string) (*types.StoredRate, error) {
	if m.RateByBankFn != nil {
		return m.RateByBankFn(ctx, key)
	}

	return nil, nil
}

type (
	CountRatesDelegate  func(context.Context) (int64, error)
	InsertRatesDelegate func(context.Context, []*types.Quote) error
	UpdateRateDelegate  func(context.Context, string, *types.RatePatch) (int64, error)
	CommitDelegate      func(context.Context) error
	RollbackDelegate    func(context.Context) error
)

type Tx struct {
	CountRatesFn  CountRatesDelegate
	InsertRatesFn InsertRatesDelegate
	UpdateRateFn  UpdateRateDelegate
	CommitFn      CommitDelegate
	RollbackFn    RollbackDelegate
}

func (m *Tx) CountRates(ctx context.Context) (int64, error) {
	if m.CountRatesFn != nil {
		return m.CountRatesFn(ctx)
	}

	return 0, nil
}

func (m *Tx) InsertRates(ctx context.Context, quotes []*types.Quote) error {
	if m.InsertRatesFn != nil {
		return m.InsertRatesFn(ctx, quotes)
	}

	return nil
}

func (m *Tx) UpdateRate(ctx context.Context, key string, patch *types.RatePatch) (int64, error) {
	if m.UpdateRateFn != nil {
		return m.UpdateRateFn(ctx, key, patch)
	}

	return 0, nil
}

func (m *Tx) Commit(ctx context.Context) error {
	if m.CommitFn != nil {
		return m.CommitFn(ctx)
	}

	return nil
}

func (m *Tx) Rollback(ctx context.Context) error {
	if m.RollbackFn != nil {
		return m.RollbackFn(ctx)
	}

	return nil
}
