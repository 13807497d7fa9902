package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/sig-0/bankrates/storage"
	"github.com/sig-0/bankrates/storage/types"
)

const (
	ratePrefix  = "rate:"
	sequenceKey = "seq:rate_id"

	sequenceBandwidth = 100
)

// Storage keeps the rates in an embedded badger store,
// one JSON encoded row per bank key
type Storage struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens (or creates) the badger store in the given directory.
// An empty directory opens an in-memory store
func Open(dir string, logger *slog.Logger) (*Storage, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(newLogger(logger))

	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("unable to open badger store: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("unable to open id sequence: %w", err)
	}

	return &Storage{
		db:  db,
		seq: seq,
	}, nil
}

// Close releases the id sequence and closes the store
func (s *Storage) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()

		return fmt.Errorf("unable to release id sequence: %w", err)
	}

	return s.db.Close()
}

func (s *Storage) Begin(ctx context.Context) (storage.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &tx{
		txn: s.db.NewTransaction(true),
		seq: s.seq,
	}, nil
}

func (s *Storage) ListRates(_ context.Context) ([]*types.StoredRate, error) {
	var out []*types.StoredRate

	err := s.db.View(func(txn *badger.Txn) error {
		rates, err := listRates(txn)
		if err != nil {
			return err
		}

		out = rates

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list rates: %w", err)
	}

	// Badger iterates in key order, so rows
	// are already ordered by bank key
	return out, nil
}

func (s *Storage) RateByBank(_ context.Context, key string) (*types.StoredRate, error) {
	var rate *types.StoredRate

	err := s.db.View(func(txn *badger.Txn) error {
		r, err := getRate(txn, key)
		if err != nil {
			return err
		}

		rate = r

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to fetch rate: %w", err)
	}

	return rate, nil
}

type tx struct {
	txn    *badger.Txn
	seq    *badger.Sequence
	closed bool
}

func (t *tx) CountRates(_ context.Context) (int64, error) {
	it := t.txn.NewIterator(badger.IteratorOptions{
		Prefix: []byte(ratePrefix),
	})
	defer it.Close()

	var count int64

	for it.Rewind(); it.Valid(); it.Next() {
		count++
	}

	return count, nil
}

func (t *tx) InsertRates(_ context.Context, quotes []*types.Quote) error {
	now := time.Now().UTC()

	for _, q := range quotes {
		row := types.NewStoredRate(q, now)

		existing, err := getRate(t.txn, q.BankKey)
		if err != nil {
			return wrapConflict(err)
		}

		if existing != nil {
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
		} else {
			id, err := t.seq.Next()
			if err != nil {
				return fmt.Errorf("unable to allocate id: %w", err)
			}

			// Sequences start at 0
			row.ID = int64(id) + 1
		}

		if err := putRate(t.txn, &row); err != nil {
			return fmt.Errorf("unable to insert rate for %q: %w", q.BankKey, wrapConflict(err))
		}
	}

	return nil
}

func (t *tx) UpdateRate(_ context.Context, key string, patch *types.RatePatch) (int64, error) {
	row, err := getRate(t.txn, key)
	if err != nil {
		return 0, wrapConflict(err)
	}

	if row == nil {
		return 0, nil
	}

	patch.Apply(row, time.Now().UTC())

	if err := putRate(t.txn, row); err != nil {
		return 0, fmt.Errorf("unable to update rate for %q: %w", key, wrapConflict(err))
	}

	return 1, nil
}

func (t *tx) Commit(_ context.Context) error {
	t.closed = true

	if err := t.txn.Commit(); err != nil {
		return wrapConflict(err)
	}

	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	if t.closed {
		return nil
	}

	t.closed = true
	t.txn.Discard()

	return nil
}

func rateKey(bankKey string) []byte {
	return []byte(ratePrefix + bankKey)
}

// getRate fetches the row for the bank key, if any
func getRate(txn *badger.Txn, bankKey string) (*types.StoredRate, error) {
	item, err := txn.Get(rateKey(bankKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil //nolint:nilnil // valid case
		}

		return nil, err
	}

	var rate types.StoredRate

	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rate)
	}); err != nil {
		return nil, fmt.Errorf("unable to decode rate: %w", err)
	}

	return &rate, nil
}

func putRate(txn *badger.Txn, rate *types.StoredRate) error {
	encoded, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("unable to encode rate: %w", err)
	}

	return txn.Set(rateKey(rate.BankKey), encoded)
}

func listRates(txn *badger.Txn) ([]*types.StoredRate, error) {
	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   100,
		Prefix:         []byte(ratePrefix),
	})
	defer it.Close()

	out := make([]*types.StoredRate, 0)

	for it.Rewind(); it.Valid(); it.Next() {
		var rate types.StoredRate

		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &rate)
		}); err != nil {
			return nil, fmt.Errorf("unable to decode rate: %w", err)
		}

		out = append(out, &rate)
	}

	return out, nil
}

// wrapConflict marks transaction conflicts with storage.ErrConflict
func wrapConflict(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %w", storage.ErrConflict, err)
	}

	return err
}
