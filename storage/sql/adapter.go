package sql

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/sig-0/bankrates/storage"
	pgStorage "github.com/sig-0/bankrates/storage/sql/gen"
	"github.com/sig-0/bankrates/storage/types"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

var errNonFiniteRate = errors.New("non-finite rate")

// DB is the postgres handle the storage runs on (*pgxpool.Pool)
type DB interface {
	pgStorage.DBTX

	Begin(context.Context) (pgx.Tx, error)
}

type Storage struct {
	db      DB
	queries *pgStorage.Queries
}

func NewStorage(db DB) *Storage {
	return &Storage{
		db:      db,
		queries: pgStorage.New(db),
	}
}

func (s *Storage) Begin(ctx context.Context) (storage.Tx, error) {
	pgTx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to begin transaction: %w", err)
	}

	return &tx{
		tx:      pgTx,
		queries: s.queries.WithTx(pgTx),
	}, nil
}

func (s *Storage) ListRates(ctx context.Context) ([]*types.StoredRate, error) {
	results, err := s.queries.ListBankRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rates: %w", err)
	}

	out := make([]*types.StoredRate, 0, len(results))

	for _, result := range results {
		out = append(out, parseBankRate(result))
	}

	return out, nil
}

func (s *Storage) RateByBank(ctx context.Context, key string) (*types.StoredRate, error) {
	result, err := s.queries.GetBankRate(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // valid case
		}

		return nil, fmt.Errorf("unable to fetch rate: %w", err)
	}

	return parseBankRate(result), nil
}

type tx struct {
	tx      pgx.Tx
	queries *pgStorage.Queries
}

func (t *tx) CountRates(ctx context.Context) (int64, error) {
	count, err := t.queries.CountBankRates(ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to count rates: %w", wrapConflict(err))
	}

	return count, nil
}

func (t *tx) InsertRates(ctx context.Context, quotes []*types.Quote) error {
	for _, q := range quotes {
		arg, err := insertParams(q)
		if err != nil {
			return fmt.Errorf("unable to insert rate for %q: %w", q.BankKey, err)
		}

		if err := t.queries.InsertBankRate(ctx, arg); err != nil {
			return fmt.Errorf("unable to insert rate for %q: %w", q.BankKey, wrapConflict(err))
		}
	}

	return nil
}

func (t *tx) UpdateRate(ctx context.Context, key string, patch *types.RatePatch) (int64, error) {
	arg, err := updateParams(key, patch)
	if err != nil {
		return 0, fmt.Errorf("unable to update rate for %q: %w", key, err)
	}

	affected, err := t.queries.UpdateBankRate(ctx, arg)
	if err != nil {
		return 0, fmt.Errorf("unable to update rate for %q: %w", key, wrapConflict(err))
	}

	return affected, nil
}

func (t *tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return wrapConflict(err)
	}

	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}

	return nil
}

// insertParams converts the quote into the insert parameters
func insertParams(q *types.Quote) (pgStorage.InsertBankRateParams, error) {
	arg := pgStorage.InsertBankRateParams{
		BankKey:    q.BankKey,
		BankName:   q.BankName,
		SourceUrl:  q.SourceURL,
		ObservedAt: q.ObservedAt,
	}

	var err error

	if arg.UsdBuy, err = floatToNumeric(q.USDBuy); err != nil {
		return arg, err
	}

	if arg.UsdSell, err = floatToNumeric(q.USDSell); err != nil {
		return arg, err
	}

	if arg.EurBuy, err = floatToNumeric(q.EURBuy); err != nil {
		return arg, err
	}

	if arg.EurSell, err = floatToNumeric(q.EURSell); err != nil {
		return arg, err
	}

	return arg, nil
}

// updateParams converts the patch into the nullable update parameters.
// Unset fields stay NULL, and are left untouched by the query
func updateParams(key string, patch *types.RatePatch) (pgStorage.UpdateBankRateParams, error) {
	arg := pgStorage.UpdateBankRateParams{
		BankKey:    key,
		BankName:   optionalText(patch.BankName),
		SourceUrl:  optionalText(patch.SourceURL),
		ObservedAt: optionalText(patch.ObservedAt),
	}

	var err error

	if arg.UsdBuy, err = optionalNumeric(patch.USDBuy); err != nil {
		return arg, err
	}

	if arg.UsdSell, err = optionalNumeric(patch.USDSell); err != nil {
		return arg, err
	}

	if arg.EurBuy, err = optionalNumeric(patch.EURBuy); err != nil {
		return arg, err
	}

	if arg.EurSell, err = optionalNumeric(patch.EURSell); err != nil {
		return arg, err
	}

	return arg, nil
}

// wrapConflict marks transaction conflicts with storage.ErrConflict
func wrapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %w", storage.ErrConflict, err)
		}
	}

	return err
}

// parseBankRate parses the postgres row to the common Go type
func parseBankRate(row pgStorage.BankRate) *types.StoredRate {
	return &types.StoredRate{
		ID:         row.ID,
		BankKey:    row.BankKey,
		BankName:   row.BankName,
		SourceURL:  row.SourceUrl,
		ObservedAt: row.ObservedAt,
		USDBuy:     numericToFloat(row.UsdBuy),
		USDSell:    numericToFloat(row.UsdSell),
		EURBuy:     numericToFloat(row.EurBuy),
		EURSell:    numericToFloat(row.EurSell),
		CreatedAt:  timestampzToTime(row.CreatedAt),
		UpdatedAt:  timestampzToTime(row.UpdatedAt),
	}
}

// floatToNumeric converts the float value to postgres numeric,
// using the shortest decimal representation of the float
func floatToNumeric(value float64) (pgtype.Numeric, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return pgtype.Numeric{}, fmt.Errorf("%w: %v", errNonFiniteRate, value)
	}

	d := decimal.NewFromFloat(value)

	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}, nil
}

// numericToFloat converts the postgres value to float
func numericToFloat(value pgtype.Numeric) float64 {
	if !value.Valid || value.Int == nil {
		return 0
	}

	return decimal.NewFromBigInt(value.Int, value.Exp).InexactFloat64()
}

func optionalNumeric(value *float64) (pgtype.Numeric, error) {
	if value == nil {
		return pgtype.Numeric{}, nil
	}

	return floatToNumeric(*value)
}

func optionalText(value *string) pgtype.Text {
	if value == nil {
		return pgtype.Text{}
	}

	return pgtype.Text{
		String: *value,
		Valid:  true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time
}
