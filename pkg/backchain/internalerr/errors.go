package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrSearchExhausted reports that the step bound ran out while goals were
	// still pending. It means "unknown", not "disproved".
	ErrSearchExhausted = errors.New("search exhausted")
	// ErrClosed is returned by a chainer whose scratch scope was released.
	ErrClosed = errors.New("chainer closed")
)
