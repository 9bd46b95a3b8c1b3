// Package logstore is an embedded, ordered, crash-safe key-value store
// with three independent keyspaces: inbound commands, processed marks,
// and per-symbol snapshots. It is the durable foundation the wal package
// builds its typed façade on top of.
package logstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names for the three logical streams. Chosen to match the
// column-family names of the RocksDB-backed store this package replaces.
const (
	BucketIn   = "in"
	BucketOut  = "out"
	BucketSnap = "snap"
)

// openTimeout bounds how long Open waits on another process's exclusive
// lock before giving up. Without it, a second opener against the same
// path blocks indefinitely instead of failing fast with ErrStorageBusy.
const openTimeout = 2 * time.Second

// ErrStorageBusy is returned by Open when another process already holds
// the exclusive lock on the store's file.
var ErrStorageBusy = errors.New("logstore: storage busy")

// ErrStorageIO wraps any underlying storage transaction failure.
var ErrStorageIO = errors.New("logstore: storage io error")

// Store wraps a single bbolt database file, holding an exclusive lock on
// it for the process lifetime of the Store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the store at path and ensures all
// three keyspaces exist. It fails fast with ErrStorageBusy if another
// process already holds the store open.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, ErrStorageBusy
		}
		return nil, fmt.Errorf("logstore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{BucketIn, BucketOut, BucketSnap} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating buckets: %v", ErrStorageIO, err)
	}

	return &Store{db: db}, nil
}

// Close releases the store's exclusive lock.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("logstore: close: %w", err)
	}
	return nil
}

// Put durably writes key=value into bucket. On successful return the
// record survives a process crash: bbolt fsyncs on commit by default.
func (s *Store) Put(bucket string, key, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put(key, value)
	})
	if err != nil {
		return fmt.Errorf("%w: put into %s: %v", ErrStorageIO, bucket, err)
	}
	return nil
}

// Get looks up key in bucket. A missing key is not an error: it returns
// (nil, false, nil).
func (s *Store) Get(bucket string, key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucket)).Get(key)
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: get from %s: %v", ErrStorageIO, bucket, err)
	}
	return value, value != nil, nil
}

// Scan walks bucket in ascending key order starting at fromKey
// (inclusive), calling fn for each entry. Returning false from fn stops
// the walk early. The walk runs inside a single read transaction, so it
// is restartable but not safe to hold open across a concurrent writer on
// the same Store (there is none, under the single-thread-per-symbol
// model this store is built for).
func (s *Store) Scan(bucket string, fromKey []byte, fn func(key, value []byte) bool) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		for k, v := c.Seek(fromKey); k != nil; k, v = c.Next() {
			if !fn(k, v) {
				break
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: scan %s: %v", ErrStorageIO, bucket, err)
	}
	return nil
}

// Last returns the last (highest-keyed) entry in bucket, or
// (nil, nil, false, nil) if the bucket is empty.
func (s *Store) Last(bucket string) (key, value []byte, ok bool, err error) {
	txErr := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		k, v := c.Last()
		if k != nil {
			key = append([]byte(nil), k...)
			value = append([]byte(nil), v...)
			ok = true
		}
		return nil
	})
	if txErr != nil {
		return nil, nil, false, fmt.Errorf("%w: last of %s: %v", ErrStorageIO, bucket, txErr)
	}
	return key, value, ok, nil
}

// EncodeSeq encodes a sequence number as an 8-byte big-endian key, so
// lexicographic byte order matches numeric order. This fixes the
// unpadded-decimal key encoding defect of the store this package
// replaces ("10" sorting before "9").
func EncodeSeq(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// DecodeSeq is the inverse of EncodeSeq.
func DecodeSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
