package matching

// BookListener is the polymorphic sink the book reports matching events
// to. All callbacks are invoked synchronously within the originating
// Add/Cancel call, before it returns. Implementations MUST NOT call back
// into the Book from within a callback; doing so is undefined behavior.
type BookListener interface {
	// OnAccept is called when an incoming order rests in the book with
	// remaining open quantity after matching.
	OnAccept(order Order)
	// OnReject is called when an incoming order is rejected before any
	// book mutation.
	OnReject(order Order, reason RejectReason)
	// OnFill is called once per side of a match: once with order as the
	// side that triggered the fill and matched as its counterparty, and
	// once with the arguments reversed.
	OnFill(order, matched Order, qty, price uint64)
	// OnCancel is called when a resting order is removed from the book.
	OnCancel(order Order)
	// OnCancelReject is called when a cancel could not find the order.
	OnCancelReject(orderID uint64, reason CancelRejectReason)
	// OnTrade is called once per match, after both OnFill calls.
	OnTrade(qty, price uint64)
}

// NoopListener implements BookListener with no-op methods. Embed it to
// satisfy the interface while only overriding the callbacks of interest,
// or use it directly (e.g. during snapshot repopulation, where the Book's
// InsertResting path never calls a listener in the first place).
type NoopListener struct{}

// OnAccept is called when an incoming order rests in the book
func (NoopListener) OnAccept(order Order) {}

// OnReject is called when an incoming order is rejected
func (NoopListener) OnReject(order Order, reason RejectReason) {}

// OnFill is called once per side of a match
func (NoopListener) OnFill(order, matched Order, qty, price uint64) {}

// OnCancel is called when a resting order is removed from the book
func (NoopListener) OnCancel(order Order) {}

// OnCancelReject is called when a cancel could not find the order
func (NoopListener) OnCancelReject(orderID uint64, reason CancelRejectReason) {}

// OnTrade is called once per match
func (NoopListener) OnTrade(qty, price uint64) {}
