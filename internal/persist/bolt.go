// Package persist is the optional bbolt-backed store for cache and status
// records. It is strictly advisory: the in-memory stores stay authoritative
// and every caller treats a persist failure as a log line, not an error.
package persist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// Bucket names. Both are created at open time.
const (
	BucketCache  = "cache"
	BucketStatus = "status"
)

var buckets = []string{BucketCache, BucketStatus}

// Store is a single-file key/record store with JSON-encoded values.
type Store struct {
	db     *bbolt.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the store at path. The parent directory
// is created if missing. A file already locked by another process fails
// fast after one second instead of blocking.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes the JSON encoding of value under key, replacing any
// previous record.
func (s *Store) Upsert(bucket, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal record %s/%s: %w", bucket, key, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("unknown bucket %s", bucket)
		}
		if err := b.Put([]byte(key), data); err != nil {
			return fmt.Errorf("store record %s/%s: %w", bucket, key, err)
		}
		return nil
	})
}

// Lookup unmarshals the record under key into out. It returns false with
// no error when the key is absent.
func (s *Store) Lookup(bucket, key string, out any) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("unknown bucket %s", bucket)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, out)
	})
	return found, err
}

// Delete removes the record under key. Deleting an absent key is a no-op.
func (s *Store) Delete(bucket, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("unknown bucket %s", bucket)
		}
		return b.Delete([]byte(key))
	})
}

// LoadBucket streams every record in the bucket to fn in key order.
// A record that fails fn does not stop the iteration; the error is logged
// and the rest of the bucket is still delivered. Used for warm starts.
func (s *Store) LoadBucket(bucket string, fn func(key string, value []byte) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("unknown bucket %s", bucket)
		}
		return b.ForEach(func(k, v []byte) error {
			if err := fn(string(k), v); err != nil {
				s.logger.Warn("skipping persisted record", "bucket", bucket, "key", string(k), "error", err)
			}
			return nil
		})
	})
}

// Len returns the number of records in the bucket.
func (s *Store) Len(bucket string) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("unknown bucket %s", bucket)
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
