package matching

// Book is an in-memory price-time-priority limit order book for a single
// symbol. All operations run to completion on the caller's goroutine;
// there are no suspension points and no internal locking, matching the
// single-threaded-per-symbol model this package is meant to run under.
type Book struct {
	symbol Symbol

	// bids is keyed descending (best = highest price); asks ascending
	// (best = lowest price).
	bids *AVLTree
	asks *AVLTree

	// orders indexes every resting order by id for O(1) cancel lookup.
	orders map[uint64]*OrderNode

	listener BookListener
}

// NewBook creates an empty book for symbol, reporting events to listener.
// A nil listener is replaced with NoopListener.
func NewBook(symbol Symbol, listener BookListener) *Book {
	if listener == nil {
		listener = NoopListener{}
	}
	return &Book{
		symbol:   symbol,
		bids:     NewAVLTree(true),
		asks:     NewAVLTree(false),
		orders:   make(map[uint64]*OrderNode),
		listener: listener,
	}
}

// Symbol returns the symbol this book matches.
func (b *Book) Symbol() Symbol {
	return b.symbol
}

// Bids returns the bid price-level index, highest price first.
func (b *Book) Bids() *AVLTree {
	return b.bids
}

// Asks returns the ask price-level index, lowest price first.
func (b *Book) Asks() *AVLTree {
	return b.asks
}

// Get returns the resting order with id, if any.
func (b *Book) Get(orderID uint64) (Order, bool) {
	node, ok := b.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return node.Order, true
}

func (b *Book) restingTree(side OrderSide) *AVLTree {
	if side == OrderSideBuy {
		return b.bids
	}
	return b.asks
}

func (b *Book) levelType(side OrderSide) LevelType {
	if side == OrderSideBuy {
		return LevelTypeBid
	}
	return LevelTypeAsk
}

// insert rests order at the tail of its price level, creating the level
// if necessary, and indexes it by id. It never invokes the listener.
func (b *Book) insert(order Order) *OrderNode {
	tree := b.restingTree(order.Side)
	level := tree.Find(order.Price)
	if level == nil {
		level = NewLevelNodePooled(b.levelType(order.Side), order.Price)
		tree.Insert(level)
	}

	node := NewOrderNodePooled(order)
	node.Level = level
	level.OrderList.PushBack(node)
	level.Orders++
	level.TotalVolume += order.OpenQty()

	b.orders[order.ID] = node
	return node
}

// removeResting detaches node from its level and the id index, releasing
// the order node, and the level node once the tree no longer holds it,
// back to their pools. It never invokes the listener.
func (b *Book) removeResting(node *OrderNode) {
	level := node.Level
	level.OrderList.Remove(node)
	level.Orders--
	level.TotalVolume -= node.OpenQty()

	delete(b.orders, node.ID)

	if level.OrderList.Empty() {
		tree := b.restingTree(node.Side)
		tree.Remove(level)
		// A level with two children stays in the tree carrying its
		// successor's data, so it is released only when it is gone.
		if tree.Find(level.Price) != level {
			ReleaseLevelNode(level)
		}
	}
	ReleaseOrderNode(node)
}

// InsertResting rests order directly into its price level, bypassing
// matching entirely. Used only to repopulate the book from a snapshot
// during recovery, where a corrupted snapshot crossing should not
// trigger spurious self-matching. Never invokes the listener.
func (b *Book) InsertResting(order Order) {
	b.insert(order)
}

// Add attempts to match order against the opposite side of the book
// before resting any residual quantity on its own side, in strict
// price-time priority: best price first, FIFO within a price.
func (b *Book) Add(order Order) {
	if order.Price == 0 {
		b.listener.OnReject(order, RejectInvalidPrice)
		return
	}
	if order.OriginalQty == 0 {
		b.listener.OnReject(order, RejectInvalidQuantity)
		return
	}

	opposite := b.asks
	if order.IsSell() {
		opposite = b.bids
	}

	for order.OpenQty() > 0 && !opposite.Empty() {
		best := opposite.First()

		if order.IsBuy() && order.Price < best.Price {
			break
		}
		if order.IsSell() && order.Price > best.Price {
			break
		}

		restingNode := best.OrderList.Front()
		fillQty := min(order.OpenQty(), restingNode.OpenQty())
		fillPrice := restingNode.Price

		order.FilledQty += fillQty
		restingNode.FilledQty += fillQty
		best.TotalVolume -= fillQty

		b.listener.OnFill(order, restingNode.Order, fillQty, fillPrice)
		b.listener.OnFill(restingNode.Order, order, fillQty, fillPrice)
		b.listener.OnTrade(fillQty, fillPrice)

		if restingNode.OpenQty() == 0 {
			b.removeResting(restingNode)
		}
	}

	if order.OpenQty() > 0 {
		b.insert(order)
		b.listener.OnAccept(order)
	}
}

// Cancel removes a resting order by id. If the id is unknown or the
// order has already fully filled, it emits OnCancelReject and returns
// ErrUnknownOrder instead of mutating the book.
func (b *Book) Cancel(orderID uint64) error {
	node, ok := b.orders[orderID]
	if !ok {
		b.listener.OnCancelReject(orderID, CancelRejectUnknownOrder)
		return ErrUnknownOrder
	}

	cancelled := node.Order
	b.removeResting(node)
	b.listener.OnCancel(cancelled)
	return nil
}

// ModifyOrder changes the price and quantity of a resting order in
// place, re-ranking it at the tail of its (possibly new) price level.
// This is a dead-but-present extension point: nothing in this repo's
// engine calls it (see the Non-goals on order replacement/modification);
// it is kept because the source exposes the equivalent hook.
func (b *Book) ModifyOrder(orderID, newPrice, newQty uint64) error {
	node, ok := b.orders[orderID]
	if !ok {
		return ErrUnknownOrder
	}

	updated := Order{
		ID:          node.ID,
		Side:        node.Side,
		Price:       newPrice,
		OriginalQty: newQty,
		FilledQty:   0,
	}

	b.removeResting(node)
	b.insert(updated)
	return nil
}

// ReplaceOrder removes orderID and rests a newly-identified order in its
// place. Like ModifyOrder, this is an unexercised extension point kept
// for parity with the source's replace hook.
func (b *Book) ReplaceOrder(orderID, newID, newPrice, newQty uint64) error {
	node, ok := b.orders[orderID]
	if !ok {
		return ErrUnknownOrder
	}
	if _, dup := b.orders[newID]; dup {
		return ErrUnknownOrder
	}

	side := node.Side
	b.removeResting(node)
	b.insert(NewOrder(newID, side, newPrice, newQty))
	return nil
}

// ForEachResting walks every resting order on side in price-then-arrival
// order (best price first, FIFO within a price), the order a snapshot
// must capture them in. fn returning false stops the walk early.
func (b *Book) ForEachResting(side OrderSide, fn func(Order) bool) {
	tree := b.restingTree(side)
	tree.ForEach(func(level *LevelNode) bool {
		for node := level.OrderList.Front(); node != nil; node = node.Next {
			if !fn(node.Order) {
				return false
			}
		}
		return true
	})
}
