package types

import "errors"

// Exchange error taxonomy. Every operation validates against these before
// mutating anything, so a rejected call is always a true no-op. Callers
// classify with errors.Is; detail is added by wrapping.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnauthorized      = errors.New("not authorized for this order")
	ErrSelfTrade         = errors.New("cannot fill own order")
	ErrInvalidState      = errors.New("order is not in a fillable state")
	ErrInvalidQuantity   = errors.New("invalid fill quantity")
	ErrNotFound          = errors.New("not found")
)
