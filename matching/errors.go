// Package matching provides a price-time-priority limit order book.
package matching

import "errors"

// RejectReason is the reason an incoming order was rejected without any
// book mutation.
type RejectReason uint8

const (
	// RejectNone indicates no rejection (unused as a zero value sentinel)
	RejectNone RejectReason = iota
	// RejectInvalidPrice indicates a non-positive price
	RejectInvalidPrice
	// RejectInvalidQuantity indicates a non-positive quantity
	RejectInvalidQuantity
)

// String returns the string representation of a RejectReason
func (r RejectReason) String() string {
	switch r {
	case RejectInvalidPrice:
		return "INVALID_PRICE"
	case RejectInvalidQuantity:
		return "INVALID_QUANTITY"
	default:
		return "NONE"
	}
}

// CancelRejectReason is the reason a cancel could not be applied.
type CancelRejectReason uint8

const (
	// CancelRejectNone indicates no rejection (unused as a zero value sentinel)
	CancelRejectNone CancelRejectReason = iota
	// CancelRejectUnknownOrder indicates the order id is not resting in the book
	CancelRejectUnknownOrder
)

// String returns the string representation of a CancelRejectReason
func (r CancelRejectReason) String() string {
	switch r {
	case CancelRejectUnknownOrder:
		return "UNKNOWN_ORDER"
	default:
		return "NONE"
	}
}

// ErrUnknownOrder is returned by Book.Cancel when the id does not
// correspond to a resting order; callers that only need a sentinel
// (not the OnCancelReject callback) can test against it with errors.Is.
var ErrUnknownOrder = errors.New("matching: unknown order id")
