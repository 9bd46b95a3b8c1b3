package matching

import "fmt"

// OrderSide represents the side of an order (buy or sell).
type OrderSide uint8

const (
	// OrderSideBuy represents a buy order
	OrderSideBuy OrderSide = iota
	// OrderSideSell represents a sell order
	OrderSideSell
)

// String returns the string representation of an OrderSide
func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "BUY"
	case OrderSideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Order is a resting or incoming limit order. ID is assigned by the caller
// (the engine, from the WAL sequence) and is immutable once constructed;
// Price and OriginalQty never change after construction; FilledQty is the
// only mutable field, advanced only by Book during matching.
type Order struct {
	ID          uint64
	Side        OrderSide
	Price       uint64
	OriginalQty uint64
	FilledQty   uint64
}

// NewOrder constructs a resting-eligible order with zero fills.
func NewOrder(id uint64, side OrderSide, price, qty uint64) Order {
	return Order{
		ID:          id,
		Side:        side,
		Price:       price,
		OriginalQty: qty,
		FilledQty:   0,
	}
}

// OpenQty is the quantity still eligible to trade or rest.
func (o *Order) OpenQty() uint64 {
	return o.OriginalQty - o.FilledQty
}

// IsBuy reports whether this is a buy order.
func (o *Order) IsBuy() bool {
	return o.Side == OrderSideBuy
}

// IsSell reports whether this is a sell order.
func (o *Order) IsSell() bool {
	return o.Side == OrderSideSell
}

// String returns the string representation of an Order
func (o *Order) String() string {
	return fmt.Sprintf(
		"Order(ID=%d, Side=%s, Price=%d, OriginalQty=%d, FilledQty=%d)",
		o.ID, o.Side, o.Price, o.OriginalQty, o.FilledQty,
	)
}

// OrderNode is an Order with linked list pointers for use in price levels.
type OrderNode struct {
	Order
	// Next points to the next order in the level
	Next *OrderNode
	// Prev points to the previous order in the level
	Prev *OrderNode
	// Level points to the price level containing this order
	Level *LevelNode
}

// NewOrderNode creates a new OrderNode from an Order
func NewOrderNode(order Order) *OrderNode {
	return &OrderNode{
		Order: order,
		Next:  nil,
		Prev:  nil,
		Level: nil,
	}
}
