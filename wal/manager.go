// Package wal is a typed façade over logstore: it issues monotonic
// sequence numbers, records command intent, marks completion, and
// stores/retrieves per-symbol book snapshots.
package wal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/adarshan/durable-matching-core/logstore"
)

// Manager wraps a logstore.Store with the WAL semantics §4.B specifies.
type Manager struct {
	store   *logstore.Store
	nextSeq uint64
}

// Open opens the store at path and recovers nextSeq from the highest key
// already present in the inbound stream, or 1 if the store is new.
func Open(path string) (*Manager, error) {
	store, err := logstore.Open(path)
	if err != nil {
		return nil, err
	}

	key, _, ok, err := store.Last(logstore.BucketIn)
	if err != nil {
		store.Close()
		return nil, err
	}

	m := &Manager{store: store, nextSeq: 1}
	if ok {
		m.nextSeq = logstore.DecodeSeq(key) + 1
	}
	return m, nil
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// AppendInbound allocates the next sequence number, durably records the
// intent, and returns the assigned seq. Any storage failure is fatal for
// the caller, which must stop; nextSeq advances only after a successful
// write, so a failed append leaves it unchanged.
func (m *Manager) AppendInbound(kind RecordKind, payload json.RawMessage) (uint64, error) {
	seq := m.nextSeq

	rec := Record{ID: seq, Type: kind, Payload: payload}
	value, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("wal: encode inbound record: %w", err)
	}

	if err := m.store.Put(logstore.BucketIn, logstore.EncodeSeq(seq), value); err != nil {
		return 0, fmt.Errorf("wal: append inbound: %w", err)
	}

	m.nextSeq++
	return seq, nil
}

// MarkProcessed records that seq's effects have been made externally
// visible. Keyed by the inbound seq, not a fill ordinal. Last write
// wins; IsProcessed only checks the key's presence.
func (m *Manager) MarkProcessed(seq uint64, payload json.RawMessage) error {
	if err := m.store.Put(logstore.BucketOut, logstore.EncodeSeq(seq), payload); err != nil {
		return fmt.Errorf("wal: mark processed: %w", err)
	}
	return nil
}

// IsProcessed reports whether seq has already been marked processed.
func (m *Manager) IsProcessed(seq uint64) (bool, error) {
	_, ok, err := m.store.Get(logstore.BucketOut, logstore.EncodeSeq(seq))
	if err != nil {
		return false, fmt.Errorf("wal: is processed: %w", err)
	}
	return ok, nil
}

// ReplayInbound returns every inbound record with id >= fromSeq, in
// ascending id order.
func (m *Manager) ReplayInbound(fromSeq uint64) ([]Record, error) {
	var records []Record
	var decodeErr error

	scanErr := m.store.Scan(logstore.BucketIn, logstore.EncodeSeq(fromSeq), func(_, value []byte) bool {
		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			decodeErr = fmt.Errorf("wal: decode inbound record: %w", err)
			return false
		}
		records = append(records, rec)
		return true
	})
	if scanErr != nil {
		return nil, fmt.Errorf("wal: replay inbound: %w", scanErr)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return records, nil
}

// SaveSnapshot zstd-compresses and upserts snap for symbol, replacing
// any snapshot previously saved for it.
func (m *Manager) SaveSnapshot(symbol string, snap Snapshot, seq uint64) error {
	raw, err := json.Marshal(snapshotEnvelope{Seq: seq, Snapshot: snap})
	if err != nil {
		return fmt.Errorf("wal: encode snapshot: %w", err)
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("wal: create snapshot encoder: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		return fmt.Errorf("wal: compress snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wal: close snapshot encoder: %w", err)
	}

	if err := m.store.Put(logstore.BucketSnap, []byte(symbol), buf.Bytes()); err != nil {
		return fmt.Errorf("wal: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the most recently saved snapshot for symbol and
// its cut-point sequence, or ok=false if none has been saved yet.
func (m *Manager) LoadSnapshot(symbol string) (seq uint64, snap Snapshot, ok bool, err error) {
	compressed, found, err := m.store.Get(logstore.BucketSnap, []byte(symbol))
	if err != nil {
		return 0, Snapshot{}, false, fmt.Errorf("wal: load snapshot: %w", err)
	}
	if !found {
		return 0, Snapshot{}, false, nil
	}

	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return 0, Snapshot{}, false, fmt.Errorf("wal: create snapshot decoder: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return 0, Snapshot{}, false, fmt.Errorf("wal: decompress snapshot: %w", err)
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0, Snapshot{}, false, fmt.Errorf("wal: decode snapshot: %w", err)
	}

	return env.Seq, env.Snapshot, true, nil
}
