package graph

import (
	"context"
	"fmt"

	"github.com/sig-0/bankrates/server/graph/model"
)

// Rates is the resolver for the rates field
func (r *queryResolver) Rates(ctx context.Context) ([]*model.BankRate, error) {
	stored, err := r.Storage.ListRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}

	out := make([]*model.BankRate, 0, len(stored))

	for _, rate := range stored {
		out = append(out, toModelBankRate(rate))
	}

	return out, nil
}

// Rate is the resolver for the rate field
func (r *queryResolver) Rate(ctx context.Context, bank string) (*model.BankRate, error) {
	stored, err := r.Storage.RateByBank(ctx, bank)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rate: %w", err)
	}

	if stored == nil {
		return nil, nil //nolint:nilnil // unknown bank
	}

	return toModelBankRate(stored), nil
}

// BestRate is the resolver for the bestRate field
func (r *queryResolver) BestRate(
	ctx context.Context,
	currency model.Currency,
	operation model.Operation,
) (*model.BestRate, error) {
	ccy, op, err := parseCurrencyAndOperation(currency, operation)
	if err != nil {
		return nil, err
	}

	best, err := r.Engine.BestRate(ctx, ccy, op)
	if err != nil {
		return nil, fmt.Errorf("unable to compute best rate: %w", err)
	}

	if best == nil {
		return nil, nil //nolint:nilnil // no rates stored
	}

	return &model.BestRate{
		Currency:  currency,
		Operation: operation,
		Banks:     best.Banks,
		Rate:      best.Rate,
	}, nil
}
