package registry

import (
	"context"

	"github.com/sindri-systems/jsonreg/lib/dbproto"
	"github.com/sindri-systems/jsonreg/lib/pool"
)

// conn is the connection surface RegisterObject/RegisterBatchObjects need:
// a Querier that can be handed back to the pool when done.
type conn interface {
	dbproto.Querier
	Release()
}

// connPool is the subset of *pool.Pool the register core depends on,
// narrowed so tests can substitute a fake pool without a live database.
type connPool interface {
	Acquire(ctx context.Context) (conn, error)
	Close()
	Size() int32
	IdleConnections() int32
}

// poolAdapter adapts *pool.Pool's concrete *pool.Conn return value to the
// conn interface above.
type poolAdapter struct{ p *pool.Pool }

func (a poolAdapter) Acquire(ctx context.Context) (conn, error) { return a.p.Acquire(ctx) }
func (a poolAdapter) Close()                                    { a.p.Close() }
func (a poolAdapter) Size() int32                                { return a.p.Size() }
func (a poolAdapter) IdleConnections() int32                     { return a.p.IdleConnections() }

