package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sig-0/bankrates/storage/types"
)

// ErrConflict is returned when a transaction could not be committed
// because of a concurrent write
var ErrConflict = errors.New("transaction conflict")

// Storage is an abstraction over the stored bank rates
type Storage interface {
	// Begin starts a new write transaction
	Begin(context.Context) (Tx, error)

	// ListRates lists all stored rates, ordered by bank key
	ListRates(context.Context) ([]*types.StoredRate, error)

	// RateByBank fetches the stored rate for the given bank key, if any
	RateByBank(context.Context, string) (*types.StoredRate, error)
}

// Tx is a single write transaction over the stored rates.
// Changes are only visible to readers after Commit
type Tx interface {
	// CountRates returns the number of stored rates
	CountRates(context.Context) (int64, error)

	// InsertRates inserts the given quotes as new rows.
	// A repeated bank key overwrites the earlier row
	InsertRates(context.Context, []*types.Quote) error

	// UpdateRate applies the patch to the row with the given bank key,
	// returning the number of affected rows
	UpdateRate(context.Context, string, *types.RatePatch) (int64, error)

	// Commit commits the transaction
	Commit(context.Context) error

	// Rollback aborts the transaction. It is a no-op after Commit
	Rollback(context.Context) error
}

// RunInTx runs fn inside a single transaction, committing on success
// and rolling back on any error
func RunInTx(ctx context.Context, s Storage, fn func(context.Context, Tx) error) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}

	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && err == nil {
			err = fmt.Errorf("unable to roll back transaction: %w", rbErr)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("unable to commit transaction: %w", err)
	}

	return nil
}
