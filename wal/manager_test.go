package wal

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wal.db")
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestAppendInboundAssignsMonotonicSeq(t *testing.T) {
	m := openTestManager(t)

	seq1, err := m.AppendInbound(KindAdd, mustMarshal(t, AddPayload{Side: "BUY", Price: 10, Qty: 5}))
	if err != nil {
		t.Fatalf("AppendInbound: %v", err)
	}
	if seq1 != 1 {
		t.Fatalf("expected first seq 1, got %d", seq1)
	}

	seq2, err := m.AppendInbound(KindCancel, mustMarshal(t, CancelPayload{ID: 1}))
	if err != nil {
		t.Fatalf("AppendInbound: %v", err)
	}
	if seq2 != 2 {
		t.Fatalf("expected second seq 2, got %d", seq2)
	}
}

func TestNextSeqRecoveredOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.db")

	m1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := m1.AppendInbound(KindAdd, mustMarshal(t, AddPayload{Side: "BUY", Price: 10, Qty: 1})); err != nil {
			t.Fatalf("AppendInbound: %v", err)
		}
	}
	if err := m1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m2.Close()

	seq, err := m2.AppendInbound(KindAdd, mustMarshal(t, AddPayload{Side: "SELL", Price: 10, Qty: 1}))
	if err != nil {
		t.Fatalf("AppendInbound after reopen: %v", err)
	}
	if seq != 4 {
		t.Fatalf("expected seq 4 after reopen, got %d", seq)
	}
}

func TestMarkProcessedAndIsProcessed(t *testing.T) {
	m := openTestManager(t)

	seq, err := m.AppendInbound(KindAdd, mustMarshal(t, AddPayload{Side: "BUY", Price: 10, Qty: 1}))
	if err != nil {
		t.Fatalf("AppendInbound: %v", err)
	}

	processed, err := m.IsProcessed(seq)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if processed {
		t.Fatal("expected not yet processed")
	}

	if err := m.MarkProcessed(seq, mustMarshal(t, map[string]any{"qty": 1})); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	processed, err = m.IsProcessed(seq)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Fatal("expected processed after MarkProcessed")
	}
}

func TestMarkProcessedIdempotent(t *testing.T) {
	m := openTestManager(t)
	seq, _ := m.AppendInbound(KindAdd, mustMarshal(t, AddPayload{Side: "BUY", Price: 10, Qty: 1}))

	if err := m.MarkProcessed(seq, mustMarshal(t, map[string]any{"n": 1})); err != nil {
		t.Fatalf("first MarkProcessed: %v", err)
	}
	if err := m.MarkProcessed(seq, mustMarshal(t, map[string]any{"n": 2})); err != nil {
		t.Fatalf("second MarkProcessed: %v", err)
	}

	ok, err := m.IsProcessed(seq)
	if err != nil || !ok {
		t.Fatalf("expected processed=true, err=nil; got ok=%v err=%v", ok, err)
	}
}

func TestReplayInboundAscendingFromSeq(t *testing.T) {
	m := openTestManager(t)

	for i := 0; i < 5; i++ {
		if _, err := m.AppendInbound(KindAdd, mustMarshal(t, AddPayload{Side: "BUY", Price: 10, Qty: uint64(i + 1)})); err != nil {
			t.Fatalf("AppendInbound: %v", err)
		}
	}

	records, err := m.ReplayInbound(3)
	if err != nil {
		t.Fatalf("ReplayInbound: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records from seq 3, got %d", len(records))
	}
	if records[0].ID != 3 {
		t.Errorf("expected first replayed id 3, got %d", records[0].ID)
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].ID >= records[i].ID {
			t.Fatalf("expected strictly ascending ids, got %v", records)
		}
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	m := openTestManager(t)

	snap := Snapshot{
		Bids: []OrderEntry{{OrderID: 1, Price: 100, Qty: 10}},
		Asks: []OrderEntry{{OrderID: 2, Price: 110, Qty: 5}},
	}

	if err := m.SaveSnapshot("TEST", snap, 42); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	seq, loaded, ok, err := m.LoadSnapshot("TEST")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}
	if seq != 42 {
		t.Errorf("expected seq 42, got %d", seq)
	}
	if len(loaded.Bids) != 1 || loaded.Bids[0].OrderID != 1 {
		t.Errorf("unexpected bids after round trip: %+v", loaded.Bids)
	}
	if len(loaded.Asks) != 1 || loaded.Asks[0].Price != 110 {
		t.Errorf("unexpected asks after round trip: %+v", loaded.Asks)
	}
}

func TestLoadSnapshotMissingIsNotError(t *testing.T) {
	m := openTestManager(t)

	_, _, ok, err := m.LoadSnapshot("UNKNOWN")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a symbol with no saved snapshot")
	}
}

func TestSaveSnapshotReplacesPrevious(t *testing.T) {
	m := openTestManager(t)

	if err := m.SaveSnapshot("TEST", Snapshot{Bids: []OrderEntry{{OrderID: 1, Price: 1, Qty: 1}}}, 1); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := m.SaveSnapshot("TEST", Snapshot{Bids: []OrderEntry{{OrderID: 2, Price: 2, Qty: 2}}}, 2); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	seq, snap, ok, err := m.LoadSnapshot("TEST")
	if err != nil || !ok {
		t.Fatalf("LoadSnapshot: ok=%v err=%v", ok, err)
	}
	if seq != 2 {
		t.Errorf("expected latest seq 2, got %d", seq)
	}
	if len(snap.Bids) != 1 || snap.Bids[0].OrderID != 2 {
		t.Errorf("expected replaced snapshot, got %+v", snap.Bids)
	}
}
