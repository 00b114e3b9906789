package matching

import "errors"

// User-facing rejects are delivered as Callback records per the engine's
// contract; Add never returns them as errors, while Cancel and Replace also
// return ErrOrderNotFound when the ID is not in the book. These
// sentinels back the reject-reason strings attached to those callbacks and
// are also returned by OrderTracker's own bookkeeping methods.
var (
	ErrInvalidSize       = errors.New("size must be positive")
	ErrOrderNotFound     = errors.New("not found")
	ErrAlreadyFilled     = errors.New("order is already filled")
	ErrFillExceedsOpen   = errors.New("fill size larger than open quantity")
	ErrReduceExceedsOpen = errors.New("replace size reduction larger than open quantity")
)

// invariantViolation panics. It marks the handful of bookkeeping states the
// design declares impossible in a correctly driven engine (fill > open
// quantity, reserve underflow past what change_qty already guarded against).
// Per spec: internal invariant violations are fatal and must trap in tests,
// not propagate as ordinary errors.
func invariantViolation(msg string) {
	panic("matching: invariant violation: " + msg)
}
