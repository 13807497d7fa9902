package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sig-0/bankrates/storage"
	"github.com/sig-0/bankrates/storage/types"
)

// Merger merges collected quotes into the rate storage.
// Every merge is applied as a single transaction
type Merger struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewMerger creates a new quote merger
func NewMerger(s storage.Storage, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Merger{
		storage: s,
		logger:  logger,
	}
}

// BootstrapOrUpdate inserts the quotes if the storage is empty,
// or updates the stored rates otherwise.
// Returns the number of rows created or updated
func (m *Merger) BootstrapOrUpdate(ctx context.Context, quotes []*types.Quote) (int64, error) {
	var affected int64

	err := storage.RunInTx(ctx, m.storage, func(ctx context.Context, tx storage.Tx) error {
		count, err := tx.CountRates(ctx)
		if err != nil {
			return fmt.Errorf("unable to count stored rates: %w", err)
		}

		if count == 0 {
			affected, err = m.bootstrap(ctx, tx, quotes)

			return err
		}

		affected, err = m.update(ctx, tx, quotes)

		return err
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// Update updates the stored rates with the quotes, keyed by bank.
// Quotes for banks that are not stored are ignored.
// Returns the number of rows updated
func (m *Merger) Update(ctx context.Context, quotes []*types.Quote) (int64, error) {
	var affected int64

	err := storage.RunInTx(ctx, m.storage, func(ctx context.Context, tx storage.Tx) error {
		var err error

		affected, err = m.update(ctx, tx, quotes)

		return err
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// bootstrap inserts the quotes into an empty storage,
// returning the number of rows created
func (m *Merger) bootstrap(ctx context.Context, tx storage.Tx, quotes []*types.Quote) (int64, error) {
	valid := make([]*types.Quote, 0, len(quotes))

	for _, q := range quotes {
		if q == nil || q.BankKey == "" {
			m.logger.Warn("skipping quote without bank key")

			continue
		}

		valid = append(valid, q)
	}

	if err := tx.InsertRates(ctx, valid); err != nil {
		return 0, fmt.Errorf("unable to insert rates: %w", err)
	}

	created, err := tx.CountRates(ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to count stored rates: %w", err)
	}

	m.logger.Info(
		"bootstrapped rates",
		"quotes", len(valid),
		"created", created,
	)

	return created, nil
}

// update applies every quote as a keyed update,
// returning the total number of rows updated
func (m *Merger) update(ctx context.Context, tx storage.Tx, quotes []*types.Quote) (int64, error) {
	var total int64

	for _, q := range quotes {
		if q == nil || q.BankKey == "" {
			m.logger.Warn("skipping quote without bank key")

			continue
		}

		patch := types.PatchFromQuote(q)
		if patch.Empty() {
			m.logger.Warn(
				"skipping empty update",
				"bank", q.BankKey,
			)

			continue
		}

		affected, err := tx.UpdateRate(ctx, q.BankKey, patch)
		if err != nil {
			return 0, fmt.Errorf("unable to update rate: %w", err)
		}

		if affected == 0 {
			m.logger.Debug(
				"bank not stored, skipping",
				"bank", q.BankKey,
			)
		}

		total += affected
	}

	m.logger.Info(
		"updated rates",
		"quotes", len(quotes),
		"updated", total,
	)

	return total, nil
}
