package wal

import "encoding/json"

// RecordKind identifies the kind of inbound command a Record carries.
type RecordKind string

const (
	// KindAdd is a new-order intent.
	KindAdd RecordKind = "add"
	// KindCancel is a cancel intent.
	KindCancel RecordKind = "cancel"
)

// Record is one entry in the inbound stream: a durable record of intent
// before it is applied to the book.
type Record struct {
	ID      uint64          `json:"id"`
	Type    RecordKind      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AddPayload is the payload shape for a KindAdd record.
type AddPayload struct {
	Side  string `json:"side"`
	Price uint64 `json:"price"`
	Qty   uint64 `json:"qty"`
}

// CancelPayload is the payload shape for a KindCancel record.
type CancelPayload struct {
	ID uint64 `json:"id"`
}

// OrderEntry is one resting order captured in a Snapshot.
type OrderEntry struct {
	OrderID uint64 `json:"orderId"`
	Price   uint64 `json:"price"`
	Qty     uint64 `json:"qty"`
}

// Snapshot is the full resting-book state captured at a point in time.
type Snapshot struct {
	Bids []OrderEntry `json:"bids"`
	Asks []OrderEntry `json:"asks"`
}

// snapshotEnvelope is the on-disk shape of a saved snapshot: the
// snapshot cut-point sequence alongside the snapshot itself.
type snapshotEnvelope struct {
	Seq      uint64   `json:"seq"`
	Snapshot Snapshot `json:"snapshot"`
}
