package memory

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/sig-0/bankrates/storage"
	"github.com/sig-0/bankrates/storage/types"
)

var errTxClosed = errors.New("transaction is closed")

type Storage struct {
	data   map[string]types.StoredRate // bank key -> row
	nextID int64

	mu   sync.RWMutex // guards data and nextID
	txMu sync.Mutex   // serializes writers
}

func NewStorage() *Storage {
	return &Storage{
		data:   make(map[string]types.StoredRate),
		nextID: 1,
	}
}

// Begin starts a copy-on-write transaction. Only one transaction
// may be open at a time, later callers wait for it to finish
func (s *Storage) Begin(ctx context.Context) (storage.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.txMu.Lock()

	s.mu.RLock()
	staged := maps.Clone(s.data)
	nextID := s.nextID
	s.mu.RUnlock()

	return &tx{
		s:      s,
		staged: staged,
		nextID: nextID,
	}, nil
}

func (s *Storage) ListRates(_ context.Context) ([]*types.StoredRate, error) {
	s.mu.RLock()

	out := make([]*types.StoredRate, 0, len(s.data))

	for _, v := range s.data {
		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].BankKey < out[j].BankKey
	})

	return out, nil
}

func (s *Storage) RateByBank(_ context.Context, key string) (*types.StoredRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, nil //nolint:nilnil // valid case
	}

	return &v, nil
}

type tx struct {
	s      *Storage
	staged map[string]types.StoredRate
	nextID int64
	closed bool
}

func (t *tx) CountRates(_ context.Context) (int64, error) {
	if t.closed {
		return 0, errTxClosed
	}

	return int64(len(t.staged)), nil
}

func (t *tx) InsertRates(_ context.Context, quotes []*types.Quote) error {
	if t.closed {
		return errTxClosed
	}

	now := time.Now().UTC()

	for _, q := range quotes {
		row := types.NewStoredRate(q, now)

		if existing, ok := t.staged[q.BankKey]; ok {
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
		} else {
			row.ID = t.nextID
			t.nextID++
		}

		t.staged[q.BankKey] = row
	}

	return nil
}

func (t *tx) UpdateRate(_ context.Context, key string, patch *types.RatePatch) (int64, error) {
	if t.closed {
		return 0, errTxClosed
	}

	row, ok := t.staged[key]
	if !ok {
		return 0, nil
	}

	patch.Apply(&row, time.Now().UTC())
	t.staged[key] = row

	return 1, nil
}

func (t *tx) Commit(_ context.Context) error {
	if t.closed {
		return errTxClosed
	}

	t.s.mu.Lock()
	t.s.data = t.staged
	t.s.nextID = t.nextID
	t.s.mu.Unlock()

	t.close()

	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	if t.closed {
		return nil
	}

	t.close()

	return nil
}

func (t *tx) close() {
	t.closed = true
	t.staged = nil

	t.s.txMu.Unlock()
}
