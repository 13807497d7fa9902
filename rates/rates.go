package rates

import (
	"context"
	"fmt"

	"github.com/sig-0/bankrates/storage"
	"github.com/sig-0/bankrates/storage/types"
)

// Engine answers best rate queries over the stored rates
type Engine struct {
	storage storage.Storage
}

// NewEngine creates a new rate query engine
func NewEngine(s storage.Storage) *Engine {
	return &Engine{
		storage: s,
	}
}

// BestRate returns the best rate for the currency and operation,
// with every bank offering exactly that rate.
// The best buy rate is the lowest, the best sell rate the highest.
// Returns nil if no rates are stored
func (e *Engine) BestRate(
	ctx context.Context,
	currency types.Currency,
	operation types.Operation,
) (*types.BestRate, error) {
	stored, err := e.storage.ListRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list rates: %w", err)
	}

	if len(stored) == 0 {
		return nil, nil //nolint:nilnil // valid case
	}

	// Find the extreme
	var (
		best  float64
		found bool
	)

	for _, r := range stored {
		value, ok := r.Rate(currency, operation)
		if !ok {
			return nil, fmt.Errorf("%w / %w", types.ErrInvalidCurrency, types.ErrInvalidOperation)
		}

		if !found || better(operation, value, best) {
			best = value
			found = true
		}
	}

	// Collect every bank at the extreme
	var (
		banks = make([]string, 0, 1)
		seen  = make(map[string]struct{})
	)

	for _, r := range stored {
		value, _ := r.Rate(currency, operation)
		if value != best {
			continue
		}

		if _, ok := seen[r.BankName]; ok {
			continue
		}

		seen[r.BankName] = struct{}{}
		banks = append(banks, r.BankName)
	}

	return &types.BestRate{
		Banks: banks,
		Rate:  best,
	}, nil
}

// better returns true if a is a better rate than b
func better(operation types.Operation, a, b float64) bool {
	if operation == types.OperationBuy {
		return a < b
	}

	return a > b
}
