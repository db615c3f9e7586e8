package deal

import (
	"sync/atomic"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
)

// guard is an exclusive latch around deal deliveries. The cash controller is
// an external collaborator and a malicious or buggy implementation could
// call back into a deal handler while a delivery is in flight, observing
// half-written state. The guard rejects any nested invocation instead.
//
// A single guard instance is shared by all handlers registered together, so
// the exclusion spans the whole package, not a single message type.
type guard struct {
	busy int32
}

// enter acquires the latch. It returns ErrReentrantCall if another delivery
// holds it. On success the caller must invoke the returned function on every
// exit path.
func (g *guard) enter() (func(), error) {
	if !atomic.CompareAndSwapInt32(&g.busy, 0, 1) {
		return nil, errors.Wrap(ErrReentrantCall, "delivery in progress")
	}
	return func() { atomic.StoreInt32(&g.busy, 0) }, nil
}

// guarded wraps a delivery function with the latch.
func (g *guard) guarded(fn func() (*weave.DeliverResult, error)) (*weave.DeliverResult, error) {
	done, err := g.enter()
	if err != nil {
		return nil, err
	}
	defer done()
	return fn()
}
