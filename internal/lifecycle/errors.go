package lifecycle

import "errors"

// Error taxonomy for the submission and completion paths. Endpoints map these
// to status codes once, at the boundary; nothing below retries.
var (
	// ErrInvalidInput marks malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLimitReached marks a submission rejected by admission control.
	ErrLimitReached = errors.New("too many concurrent jobs")

	// ErrStoreUnavailable wraps any failure talking to the job store.
	ErrStoreUnavailable = errors.New("job store unavailable")

	// ErrDispatchFailed marks a dispatch that could not be acknowledged after
	// the record was already persisted.
	ErrDispatchFailed = errors.New("dispatch failed")
)
