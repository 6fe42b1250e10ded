// Package history keeps a local record of past backup runs so operators can
// review outcomes without digging through mail or the transcript file.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// keyPrefix namespaces run entries in the store.
var keyPrefix = []byte("run/")

// keyTimeLayout is fixed-width so keys sort chronologically as bytes.
const keyTimeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry summarizes one backup run.
type Entry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Host          string    `json:"host"`
	Status        string    `json:"status"`
	Archives      int       `json:"archives"`
	ArchivedBytes int64     `json:"archived_bytes"`
	Deleted       int       `json:"deleted"`
	FreedBytes    int64     `json:"freed_bytes"`
}

// NewEntry creates an entry stamped with a fresh run ID.
func NewEntry(ts time.Time, host, status string) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Timestamp: ts.UTC(),
		Host:      host,
		Status:    status,
	}
}

// Store wraps Badger for run-history persistence.
type Store struct {
	db *badger.DB
}

// Open opens or creates a history store at the given path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append persists a run entry.
func (s *Store) Append(entry *Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding history entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry), value)
	})
}

// List returns entries newest-first. A non-positive limit returns all
// entries.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Keys sort by timestamp, so reverse iteration from just past
		// the prefix range yields newest entries first.
		seek := append(append([]byte{}, keyPrefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(keyPrefix); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}

			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// Cleanup removes entries older than retentionDays. It returns how many were
// deleted.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, errors.New("retention days must be positive")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			ts, err := timestampFromKey(key)
			if err != nil {
				continue
			}
			if ts.Before(cutoff) {
				stale = append(stale, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning history: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting stale history: %w", err)
	}
	return len(stale), nil
}

// entryKey builds a timestamp-ordered key for the entry.
func entryKey(entry *Entry) []byte {
	return []byte(fmt.Sprintf("%s%s/%s", keyPrefix, entry.Timestamp.UTC().Format(keyTimeLayout), entry.ID))
}

// timestampFromKey parses the timestamp component back out of a key.
func timestampFromKey(key []byte) (time.Time, error) {
	rest := string(key[len(keyPrefix):])
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return time.Parse(keyTimeLayout, rest[:i])
		}
	}
	return time.Time{}, errors.New("malformed history key")
}
