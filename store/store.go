// Package store persists trajectory state vectors in BadgerDB, keyed by the
// canonical epoch string, and maintains a derived in-memory epoch index for
// ordered listing and nearest-epoch scans.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/model"
)

// TrajectoryStore owns the record set. Records are immutable once stored;
// the only writers are Load and ForceReload, which run under the write lock
// so readers observe either the pre-load or the fully-loaded state, never a
// partial batch.
//
// The canonical epoch string is fixed-width and zero-padded, so its
// lexicographic order equals chronological order; the index is a sorted
// slice of keys.
type TrajectoryStore struct {
	db  *badger.DB
	log logging.Logger

	mu         sync.RWMutex
	keys       []string // ascending
	present    map[string]struct{}
	lastIngest time.Time
}

// Open opens (or creates) the store at path. An empty path opens an
// in-memory instance, which tests use. The epoch index is rebuilt from the
// persisted keys, so data survives restarts; keys that no longer parse as
// epochs are dropped from the index and reported.
func Open(path string, log logging.Logger) (*TrajectoryStore, error) {
	if log == nil {
		log = logging.Noop()
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open trajectory store: %w", err)
	}

	s := &TrajectoryStore{
		db:      db,
		log:     log,
		present: make(map[string]struct{}),
	}
	if err := s.rebuildIndex(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database.
func (s *TrajectoryStore) Close() error {
	return s.db.Close()
}

// rebuildIndex scans all persisted keys into the sorted in-memory index.
func (s *TrajectoryStore) rebuildIndex() error {
	keys := make([]string, 0, 1024)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().KeyCopy(nil))
			if _, err := model.ParseEpoch(key); err != nil {
				s.log.Warn(context.Background(), "dropping non-epoch key from index",
					logging.String("key", key))
				continue
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild epoch index: %w", err)
	}
	sort.Strings(keys)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
	s.present = make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s.present[k] = struct{}{}
	}
	return nil
}

// Load performs the idempotent bulk load. A store that already holds records
// leaves them untouched and reports zero loaded and zero rejected, so
// startup ingest after a restart is a no-op. Use ForceReload for an explicit
// refresh.
func (s *TrajectoryStore) Load(ctx context.Context, records []model.StateVector) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.keys) > 0 {
		return 0, 0, nil
	}
	return s.writeLocked(ctx, records)
}

// ForceReload replaces the full record set with the given batch.
func (s *TrajectoryStore) ForceReload(ctx context.Context, records []model.StateVector) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DropAll(); err != nil {
		return 0, 0, fmt.Errorf("drop record set: %w", err)
	}
	s.keys = nil
	s.present = make(map[string]struct{})
	return s.writeLocked(ctx, records)
}

// writeLocked persists a batch and swaps in the new index. Caller holds the
// write lock. Records failing validation are counted as rejected; duplicate
// epochs within the batch collapse to the last occurrence rather than
// producing duplicate keys.
func (s *TrajectoryStore) writeLocked(ctx context.Context, records []model.StateVector) (int, int, error) {
	rejected := 0
	byKey := make(map[string][]byte, len(records))
	for _, sv := range records {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		if sv.Epoch.IsZero() || !sv.Position.IsFinite() || !sv.Velocity.IsFinite() {
			rejected++
			continue
		}
		data, err := json.Marshal(sv)
		if err != nil {
			rejected++
			continue
		}
		byKey[sv.Epoch.String()] = data
	}

	if len(byKey) > 0 {
		wb := s.db.NewWriteBatch()
		defer wb.Cancel()
		for key, data := range byKey {
			if err := wb.Set([]byte(key), data); err != nil {
				return 0, rejected, fmt.Errorf("stage record %s: %w", key, err)
			}
		}
		if err := wb.Flush(); err != nil {
			return 0, rejected, fmt.Errorf("flush record batch: %w", err)
		}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	s.keys = keys
	s.present = make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s.present[k] = struct{}{}
	}
	s.lastIngest = time.Now().UTC()
	return len(keys), rejected, nil
}

// Exists reports whether a record with the given epoch is stored.
func (s *TrajectoryStore) Exists(epoch model.Epoch) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.present[epoch.String()]
	return ok
}

// Get returns the record stored under the given epoch, or ErrNotFound.
func (s *TrajectoryStore) Get(epoch model.Epoch) (model.StateVector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(epoch.String())
}

func (s *TrajectoryStore) getLocked(key string) (model.StateVector, error) {
	if _, ok := s.present[key]; !ok {
		return model.StateVector{}, fmt.Errorf("%w: %s", model.ErrNotFound, key)
	}

	var sv model.StateVector
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sv)
		})
	})
	if err == badger.ErrKeyNotFound {
		return model.StateVector{}, fmt.Errorf("%w: %s", model.ErrNotFound, key)
	}
	if err != nil {
		return model.StateVector{}, fmt.Errorf("read record %s: %w", key, err)
	}
	return sv, nil
}

// ListEpochs returns epochs in ascending chronological order, starting at
// offset. A negative limit means "all remaining"; an offset past the end
// yields an empty slice. Negative argument validation belongs to the caller.
func (s *TrajectoryStore) ListEpochs(offset, limit int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.keys) {
		return []string{}
	}

	// Compare against the remaining count rather than offset+limit, which
	// can overflow for huge limits.
	end := len(s.keys)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}

	out := make([]string, end-offset)
	copy(out, s.keys[offset:end])
	return out
}

// All returns the full record set in ascending epoch order.
func (s *TrajectoryStore) All() ([]model.StateVector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.StateVector, 0, len(s.keys))
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		// Badger iterates keys in lexicographic order, which for canonical
		// epoch keys is chronological order.
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if _, ok := s.present[key]; !ok {
				continue
			}
			var sv model.StateVector
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sv)
			})
			if err != nil {
				return fmt.Errorf("decode record %s: %w", key, err)
			}
			records = append(records, sv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *TrajectoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// LastIngest returns when the store last completed a load, or the zero time
// if records were only inherited from a previous process run.
func (s *TrajectoryStore) LastIngest() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastIngest
}
