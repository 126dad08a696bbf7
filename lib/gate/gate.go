package gate

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/sindri-systems/jsonreg/lib/errs"
)

// Producer resolves a fingerprint to a registry id, typically by acquiring
// a pooled connection and running the DB protocol's lookup-then-insert. It
// must be idempotent: it may be invoked once per distinct in-flight
// resolution and its result is shared by every caller coalesced onto it.
type Producer func(ctx context.Context) (int32, error)

type call struct {
	done chan struct{}
	id   int32
	err  error
}

// Gate coalesces concurrent Resolve calls for the same key into a single
// Producer invocation.
type Gate struct {
	inflight *xsync.MapOf[string, *call]
}

// New creates an empty Gate.
func New() *Gate {
	return &Gate{inflight: xsync.NewMapOf[string, *call]()}
}

// Resolve returns the id for key, running producer at most once per
// distinct in-flight key regardless of how many callers arrive
// concurrently. If a resolution for key is already in flight, the caller
// waits for it and receives its id or its error without invoking producer.
// The gate entry for key is removed once the resolution completes, so a
// later Resolve call starts a fresh one.
//
// producer runs detached from ctx's cancellation (via
// context.WithoutCancel) so that a caller cancelling its own Resolve call
// never aborts a resolution other callers are waiting on; only the
// cancelling caller's wait is abandoned, and it receives a Cancelled
// error.
func (g *Gate) Resolve(ctx context.Context, key string, producer Producer) (int32, error) {
	c, loaded := g.inflight.LoadOrStore(key, &call{done: make(chan struct{})})
	if !loaded {
		go func() {
			c.id, c.err = producer(context.WithoutCancel(ctx))
			g.inflight.Delete(key)
			close(c.done)
		}()
	}

	select {
	case <-c.done:
		return c.id, c.err
	case <-ctx.Done():
		return 0, errs.New(errs.Cancelled, "cancelled while waiting for an in-flight resolution", ctx.Err())
	}
}

// InFlight reports how many distinct fingerprints currently have a
// resolution in progress. Intended for tests and diagnostics.
func (g *Gate) InFlight() int {
	return g.inflight.Size()
}

// Handle is the low-level counterpart to Resolve, for callers that want
// to batch the actual work for several keys that turn out not to be
// in flight yet (the register core's batch path) rather than issuing
// one Producer per key.
type Handle struct {
	key  string
	c    *call
	gate *Gate
}

// Start registers key as in flight if it is not already, returning a
// Handle and whether this call became the owner. An owner must
// eventually call Succeed or Fail exactly once. A non-owner must call
// Wait to observe the owner's result.
func (g *Gate) Start(key string) (*Handle, bool) {
	c, loaded := g.inflight.LoadOrStore(key, &call{done: make(chan struct{})})
	return &Handle{key: key, c: c, gate: g}, !loaded
}

// Succeed completes the resolution successfully and releases the gate
// entry. Owner-only.
func (h *Handle) Succeed(id int32) {
	h.c.id = id
	close(h.c.done)
	h.gate.inflight.Delete(h.key)
}

// Fail completes the resolution with an error and releases the gate
// entry. Owner-only.
func (h *Handle) Fail(err error) {
	h.c.err = err
	close(h.c.done)
	h.gate.inflight.Delete(h.key)
}

// Wait blocks until the resolution completes or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) (int32, error) {
	select {
	case <-h.c.done:
		return h.c.id, h.c.err
	case <-ctx.Done():
		return 0, errs.New(errs.Cancelled, "cancelled while waiting for an in-flight resolution", ctx.Err())
	}
}

// Done returns a channel closed once the resolution completes.
func (h *Handle) Done() <-chan struct{} { return h.c.done }
