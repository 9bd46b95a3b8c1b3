// Package engine orchestrates a matching.Book over a wal.Manager and a
// Broadcaster: it persists intent before applying commands, publishes
// fills, marks commands durably processed, periodically snapshots, and
// recovers deterministically after a crash.
package engine

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/adarshan/durable-matching-core/matching"
	"github.com/adarshan/durable-matching-core/wal"
)

// DefaultSnapshotEvery is the number of fills between automatic
// snapshots, matching the source's cadence.
const DefaultSnapshotEvery = 1000

// Engine is the single-symbol orchestrator described by this package's
// doc comment. It implements matching.BookListener itself, the same
// "engine is its own listener" shape the source uses.
type Engine struct {
	symbol      matching.Symbol
	book        *matching.Book
	wal         *wal.Manager
	broadcaster Broadcaster
	logger      *log.Logger

	// SnapshotEvery is how many fills elapse between automatic
	// snapshots. Zero disables the automatic cadence; TakeSnapshot can
	// still be called directly.
	SnapshotEvery uint64

	processedCount uint64
	currentSeq     uint64

	// replaying is true only while Recover is replaying inbound records.
	// replayRecordProcessed holds whether the record currently being
	// replayed was already marked processed before the crash, captured
	// once per record so a match's two OnFill calls agree on it even
	// though the first call's own mark would otherwise flip the answer
	// for the second.
	replaying             bool
	replayRecordProcessed bool

	aborted bool
	err     error
}

// New creates an Engine for symbol, durable to w, publishing through b.
// A nil broadcaster defaults to NoopBroadcaster.
func New(symbol matching.Symbol, w *wal.Manager, b Broadcaster) *Engine {
	if b == nil {
		b = NoopBroadcaster{}
	}
	e := &Engine{
		symbol:        symbol,
		wal:           w,
		broadcaster:   b,
		logger:        log.Default(),
		SnapshotEvery: DefaultSnapshotEvery,
	}
	e.book = matching.NewBook(symbol, e)
	return e
}

// Book returns the underlying order book, mainly for inspection in tests
// and the demo command.
func (e *Engine) Book() *matching.Book {
	return e.book
}

// ProcessedCount is the number of fills successfully broadcast and
// durably marked so far.
func (e *Engine) ProcessedCount() uint64 {
	return e.processedCount
}

// Err returns the fatal error that aborted the engine, if any.
func (e *Engine) Err() error {
	return e.err
}

func (e *Engine) abort(err error) {
	if e.aborted {
		return
	}
	e.aborted = true
	e.err = err
	e.logger.Printf("engine: aborting, no further commands will be accepted: %v", err)
}

// AddOrder persists the add intent, then applies it to the book. Fills
// triggered along the way are broadcast and marked durably processed as
// they occur.
func (e *Engine) AddOrder(side matching.OrderSide, price, qty uint64) (matching.Order, error) {
	if e.aborted {
		return matching.Order{}, fmt.Errorf("%w: %v", ErrAborted, e.err)
	}

	payload, err := json.Marshal(wal.AddPayload{Side: side.String(), Price: price, Qty: qty})
	if err != nil {
		return matching.Order{}, fmt.Errorf("engine: encode add payload: %w", err)
	}

	seq, err := e.wal.AppendInbound(wal.KindAdd, payload)
	if err != nil {
		e.abort(err)
		return matching.Order{}, err
	}

	return e.applyAdd(seq, side, price, qty)
}

// CancelOrder persists the cancel intent, then applies it. A cancel
// against an unknown or already-closed order id is not an engine-level
// error: Book.Cancel reports it via OnCancelReject, which this engine
// only logs.
func (e *Engine) CancelOrder(orderID uint64) error {
	if e.aborted {
		return fmt.Errorf("%w: %v", ErrAborted, e.err)
	}

	payload, err := json.Marshal(wal.CancelPayload{ID: orderID})
	if err != nil {
		return fmt.Errorf("engine: encode cancel payload: %w", err)
	}

	seq, err := e.wal.AppendInbound(wal.KindCancel, payload)
	if err != nil {
		e.abort(err)
		return err
	}

	return e.applyCancel(seq, orderID)
}

// applyAdd applies a constructed add to the book. Only OnFill writes to
// the "out" stream: a resting order that triggers no fill is never
// marked processed.
func (e *Engine) applyAdd(seq uint64, side matching.OrderSide, price, qty uint64) (matching.Order, error) {
	e.currentSeq = seq
	order := matching.NewOrder(seq, side, price, qty)
	e.book.Add(order)
	if e.aborted {
		return order, e.err
	}
	return order, nil
}

// applyCancel applies a cancel to the book. Like applyAdd, it writes
// nothing to the "out" stream: a cancel never produces a fill.
func (e *Engine) applyCancel(seq, orderID uint64) error {
	e.currentSeq = seq
	_ = e.book.Cancel(orderID)
	if e.aborted {
		return e.err
	}
	return nil
}

// TakeSnapshot captures the book's current resting state and durably
// saves it, keyed by the engine's processed_count at the moment of
// capture. This is the snapshot's replay cut-point.
func (e *Engine) TakeSnapshot() error {
	if e.aborted {
		return fmt.Errorf("%w: %v", ErrAborted, e.err)
	}

	var snap wal.Snapshot
	e.book.ForEachResting(matching.OrderSideBuy, func(o matching.Order) bool {
		snap.Bids = append(snap.Bids, wal.OrderEntry{OrderID: o.ID, Price: o.Price, Qty: o.OpenQty()})
		return true
	})
	e.book.ForEachResting(matching.OrderSideSell, func(o matching.Order) bool {
		snap.Asks = append(snap.Asks, wal.OrderEntry{OrderID: o.ID, Price: o.Price, Qty: o.OpenQty()})
		return true
	})

	if err := e.wal.SaveSnapshot(e.symbol.Name, snap, e.processedCount); err != nil {
		e.abort(err)
		return err
	}
	return nil
}

// Recover reconstructs the book from the latest snapshot, then replays
// every inbound record after the snapshot's cut-point. Snapshot entries
// are inserted via Book.InsertResting, bypassing matching entirely, so a
// corrupted or crossed snapshot can never trigger spurious self-matching
// during recovery.
//
// Every replayed record is re-applied to the book regardless of its
// processed status: a command's own processed mark only covers the
// fills it triggered as the aggressor, never the resting maker it
// crossed, so skipping "processed" records would orphan makers from
// matches that happened after the snapshot. Each add record's processed
// status is instead captured once, before it is re-applied, and used by
// OnFill to suppress broadcast and mark for fills whose triggering
// command was already made externally visible before the crash.
func (e *Engine) Recover() error {
	lastSnapSeq, snap, ok, err := e.wal.LoadSnapshot(e.symbol.Name)
	if err != nil {
		return err
	}
	if ok {
		if err := e.restoreSide(matching.OrderSideBuy, snap.Bids); err != nil {
			return err
		}
		if err := e.restoreSide(matching.OrderSideSell, snap.Asks); err != nil {
			return err
		}
		e.processedCount = lastSnapSeq
	}

	records, err := e.wal.ReplayInbound(lastSnapSeq + 1)
	if err != nil {
		return err
	}

	e.replaying = true
	defer func() { e.replaying = false }()

	for _, rec := range records {
		switch rec.Type {
		case wal.KindAdd:
			// An add's order id is always its own inbound seq. A hit
			// here means InsertResting already placed this order during
			// snapshot restore; skip re-adding it.
			if _, exists := e.book.Get(rec.ID); exists {
				continue
			}
			var p wal.AddPayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil {
				return fmt.Errorf("%w: decoding add at seq %d: %v", ErrReplayMismatch, rec.ID, err)
			}
			side, err := parseSide(p.Side)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrReplayMismatch, err)
			}
			processed, err := e.wal.IsProcessed(rec.ID)
			if err != nil {
				return err
			}
			e.replayRecordProcessed = processed
			if _, err := e.applyAdd(rec.ID, side, p.Price, p.Qty); err != nil {
				return err
			}
		case wal.KindCancel:
			var p wal.CancelPayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil {
				return fmt.Errorf("%w: decoding cancel at seq %d: %v", ErrReplayMismatch, rec.ID, err)
			}
			if err := e.applyCancel(rec.ID, p.ID); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown record type %q at seq %d", ErrReplayMismatch, rec.Type, rec.ID)
		}
	}

	return nil
}

func (e *Engine) restoreSide(side matching.OrderSide, entries []wal.OrderEntry) error {
	for _, entry := range entries {
		if entry.Price == 0 || entry.Qty == 0 {
			return fmt.Errorf("%w: snapshot entry orderId=%d has zero price or qty", ErrReplayMismatch, entry.OrderID)
		}
		e.book.InsertResting(matching.NewOrder(entry.OrderID, side, entry.Price, entry.Qty))
	}
	return nil
}

func parseSide(s string) (matching.OrderSide, error) {
	switch s {
	case "BUY":
		return matching.OrderSideBuy, nil
	case "SELL":
		return matching.OrderSideSell, nil
	default:
		return 0, fmt.Errorf("unknown order side %q", s)
	}
}

// --- matching.BookListener ---

// OnAccept logs that an order rested in the book.
func (e *Engine) OnAccept(order matching.Order) {
	e.logger.Printf("[LISTENER] accept order=%d side=%s price=%d qty=%d", order.ID, order.Side, order.Price, order.OriginalQty)
}

// OnReject logs that an order was rejected before any book mutation.
func (e *Engine) OnReject(order matching.Order, reason matching.RejectReason) {
	e.logger.Printf("[LISTENER] reject order=%d reason=%s", order.ID, reason)
}

// OnFill broadcasts the fill and, on success, marks the triggering
// command processed and advances processed_count. A broadcast failure
// aborts the engine; a WAL failure does too.
//
// During Recover's replay, a fill whose triggering command was already
// marked processed before the crash (per replayRecordProcessed) is not
// re-broadcast or re-marked: only processed_count advances, keeping it
// in step with the book.
func (e *Engine) OnFill(order, matched matching.Order, qty, price uint64) {
	if e.aborted {
		return
	}

	if e.replaying && e.replayRecordProcessed {
		e.processedCount++
		return
	}

	msg := fillMessage{OrderID: order.ID, MatchedID: matched.ID, Qty: qty, Price: price}
	if !e.broadcaster.Publish("trades", msg) {
		e.abort(fmt.Errorf("%w: order %d vs %d", ErrBroadcastFailed, order.ID, matched.ID))
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		e.abort(fmt.Errorf("engine: encode fill payload: %w", err))
		return
	}
	if err := e.wal.MarkProcessed(e.currentSeq, payload); err != nil {
		e.abort(err)
		return
	}

	e.processedCount++
	e.logger.Printf("[LISTENER] fill order=%d matched=%d qty=%d price=%d", order.ID, matched.ID, qty, price)

	if e.SnapshotEvery > 0 && e.processedCount%e.SnapshotEvery == 0 {
		if err := e.TakeSnapshot(); err != nil {
			e.abort(err)
		}
	}
}

// OnCancel logs that a resting order was removed.
func (e *Engine) OnCancel(order matching.Order) {
	e.logger.Printf("[LISTENER] cancel order=%d", order.ID)
}

// OnCancelReject logs that a cancel could not find its target order.
func (e *Engine) OnCancelReject(orderID uint64, reason matching.CancelRejectReason) {
	e.logger.Printf("[LISTENER] cancel-reject order=%d reason=%s", orderID, reason)
}

// OnTrade logs the aggregate trade, once per match.
func (e *Engine) OnTrade(qty, price uint64) {
	e.logger.Printf("[LISTENER] trade qty=%d price=%d", qty, price)
}

// fillMessage is both the broadcast payload and the "out" keyspace
// payload for a fill: (orderId, matchedId, qty, price), the tuple
// scenario §8.6 requires downstream idempotence on.
type fillMessage struct {
	OrderID   uint64 `json:"orderId"`
	MatchedID uint64 `json:"matchedId"`
	Qty       uint64 `json:"qty"`
	Price     uint64 `json:"price"`
}
