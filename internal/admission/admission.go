package admission

import (
	"context"
	"fmt"

	"async-job-dispatcher/internal/lifecycle"
)

// ActiveCounter is the slice of the store the controller needs.
type ActiveCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// Controller decides whether a new submission may proceed. The decision is
// based on a snapshot count of ACTIVE records, not a lock: two concurrent
// submissions can both observe count < limit and both proceed, so under
// contention the limit is advisory. A hard guarantee would need a conditional
// insert-if-count-below-N on the store side.
type Controller struct {
	counter ActiveCounter
	limit   int
}

// New builds a controller for the given concurrency limit.
func New(counter ActiveCounter, limit int) *Controller {
	return &Controller{counter: counter, limit: limit}
}

// Admit reports whether a submission may proceed and the active count it
// observed. A failed count is never treated as zero; admitting on a broken
// store would void the limit entirely.
func (c *Controller) Admit(ctx context.Context) (bool, int, error) {
	active, err := c.counter.CountActive(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", lifecycle.ErrStoreUnavailable, err)
	}
	return active < c.limit, active, nil
}

// Limit exposes the configured ceiling.
func (c *Controller) Limit() int {
	return c.limit
}
