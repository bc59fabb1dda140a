// Package history persists counting runs in a Badger database so repeated
// benchmark submissions can be compared across machines and over time.
package history

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/jamesainslie/primes/pkg/primes/logging"
)

// Key layout:
//
//	r:<8-byte big-endian unix nanos><id>  -> Run JSON, ordered by start time
//	i:<id>                                -> r: key of the run
//
// Start times outside 1970..2262 are clamped to the ends of that range.
const (
	prefixRun   = "r:"
	prefixIndex = "i:"
)

var (
	// ErrNotFound is returned when no run matches an id.
	ErrNotFound = errors.New("run not found")

	// ErrAmbiguous is returned when an id prefix matches several runs.
	ErrAmbiguous = errors.New("ambiguous run id")
)

var logger = logging.Get("history")

// Run is one recorded counting run.
type Run struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Max        int32         `json:"max"`
	Primes     int64         `json:"primes"`
	CPUSeconds float64       `json:"cpu_seconds"`
	Wall       time.Duration `json:"wall"`
	Host       string        `json:"host,omitempty"`
}

// Store is the run history backed by Badger.
type Store struct {
	db *badger.DB
}

// Open opens or creates the history database in dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a history store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory history: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores run, assigning an ID and start time when they are unset,
// and returns the stored copy.
func (s *Store) Record(run Run) (*Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()

	data, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("encoding run: %w", err)
	}

	key := runKey(run.StartedAt, run.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(indexKey(run.ID), key)
	})
	if err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}

	logger.Debug("run recorded", "id", run.ID, "max", run.Max, "primes", run.Primes)
	return &run, nil
}

// List returns runs newest first. A limit of zero or less returns every run.
func (s *Store) List(limit int) ([]Run, error) {
	runs := []Run{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixRun)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the largest key <= the seek key.
		seek := append([]byte(prefixRun), 0xff)
		for it.Seek(seek); it.ValidForPrefix([]byte(prefixRun)); it.Next() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			run, err := decodeRun(it.Item())
			if err != nil {
				logger.Warn("skipping unreadable run", "key", fmt.Sprintf("%x", it.Item().Key()), "error", err)
				continue
			}
			runs = append(runs, *run)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Get returns the run whose id is, or uniquely starts with, id.
func (s *Store) Get(id string) (*Run, error) {
	if id == "" {
		return nil, errors.New("run id cannot be empty")
	}

	var run *Run
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := resolveID(txn, id)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return err
		}
		run, err = decodeRun(item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Prune deletes runs that started before cutoff and returns how many were removed.
func (s *Store) Prune(cutoff time.Time) (int, error) {
	var stale []Run

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRun)
		it := txn.NewIterator(opts)
		defer it.Close()

		limit := runKey(cutoff.UTC(), "")
		for it.Seek([]byte(prefixRun)); it.ValidForPrefix([]byte(prefixRun)); it.Next() {
			if bytes.Compare(it.Item().Key(), limit) >= 0 {
				break
			}
			run, err := decodeRun(it.Item())
			if err != nil {
				return err
			}
			stale = append(stale, *run)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning runs: %w", err)
	}

	if len(stale) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, run := range stale {
		if err := wb.Delete(runKey(run.StartedAt, run.ID)); err != nil {
			return 0, fmt.Errorf("deleting run %s: %w", run.ID, err)
		}
		if err := wb.Delete(indexKey(run.ID)); err != nil {
			return 0, fmt.Errorf("deleting index for %s: %w", run.ID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}

	logger.Info("pruned run history", "removed", len(stale), "cutoff", cutoff)
	return len(stale), nil
}

// Count returns the number of recorded runs.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixIndex)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// resolveID maps a full id or unique id prefix to the run key.
func resolveID(txn *badger.Txn, id string) ([]byte, error) {
	prefix := indexKey(id)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var key []byte
	matches := 0
	for it.Rewind(); it.Valid(); it.Next() {
		matches++
		if matches > 1 {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
		}
		var err error
		key, err = it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
	}

	if matches == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return key, nil
}

func decodeRun(item *badger.Item) (*Run, error) {
	var run Run
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func runKey(startedAt time.Time, id string) []byte {
	key := make([]byte, 0, len(prefixRun)+8+len(id))
	key = append(key, prefixRun...)
	key = binary.BigEndian.AppendUint64(key, keyNanos(startedAt))
	return append(key, id...)
}

var (
	minKeyTime = time.Unix(0, 0)
	maxKeyTime = time.Unix(0, math.MaxInt64)
)

func keyNanos(t time.Time) uint64 {
	switch {
	case t.Before(minKeyTime):
		return 0
	case t.After(maxKeyTime):
		return math.MaxInt64
	}
	return uint64(t.UnixNano())
}

func indexKey(id string) []byte {
	return append([]byte(prefixIndex), id...)
}
