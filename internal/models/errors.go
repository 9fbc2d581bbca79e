package models

import "errors"

// Domain error sentinels. Every abort-class error rolls the whole purchase
// back; the HTTP layer maps them to a generic envelope while the full
// message is logged for operators.
var (
	ErrInvalidBillData     = errors.New("invalid bill data")
	ErrInvalidLineData     = errors.New("invalid line data")
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrPersistence         = errors.New("persistence failure")
)

// ErrorKind returns a stable label for a domain error, used for metrics
// and operator logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidBillData):
		return "invalid_bill_data"
	case errors.Is(err, ErrInvalidLineData):
		return "invalid_line_data"
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	default:
		return "persistence_error"
	}
}

// Retryable reports whether the caller may safely retry the entire
// request unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
