package royalty

import "errors"

var (
	// ErrNotAuthorized is returned when the caller lacks the identity or role
	// an operation requires.
	ErrNotAuthorized = errors.New("royalty: not authorized")
	// ErrInsufficientFunds is returned when the funding source balance cannot
	// cover the requested amount.
	ErrInsufficientFunds = errors.New("royalty: insufficient funds")
	// ErrPaymentNotFound is returned for an unknown payment id.
	ErrPaymentNotFound = errors.New("royalty: payment not found")
	// ErrAlreadyClaimed is returned when an operation requires a pending
	// record but the record was already claimed or expired.
	ErrAlreadyClaimed = errors.New("royalty: payment not pending")
	// ErrInvalidInput is returned on malformed amount, percentage or height
	// arguments.
	ErrInvalidInput = errors.New("royalty: invalid input")
	// ErrPaymentExpired is returned for a claim attempted after the deadline.
	ErrPaymentExpired = errors.New("royalty: claim deadline passed")
	// ErrOverflow is returned when an amount computation would exceed the
	// ceiling.
	ErrOverflow = errors.New("royalty: amount overflow")
)
