package pool

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sindri-systems/jsonreg/lib/dbproto"
	"github.com/sindri-systems/jsonreg/lib/errs"
)

// Config configures pool construction. ConnString is a standard Postgres
// connection URL or keyword/value string; it is never logged or embedded
// in an error message unscrubbed.
type Config struct {
	ConnString string

	// PoolSize is the maximum number of simultaneous connections. Zero
	// leaves pgxpool's own default (roughly the number of CPUs).
	PoolSize int32

	// AcquireTimeout bounds how long Acquire waits for a free connection
	// before returning a PoolTimeout error. Zero means no timeout.
	AcquireTimeout time.Duration

	// IdleTimeout closes a connection that has sat idle in the pool for
	// longer than this. Zero disables idle eviction.
	IdleTimeout time.Duration

	// MaxLifetime closes a connection once it has existed for longer
	// than this, regardless of use. Zero disables lifetime eviction.
	MaxLifetime time.Duration
}

// rawPool and rawConn narrow pgxpool.Pool/pgxpool.Conn down to what Pool
// needs, so a Pool built by newPool can be tested against a fake without
// a live database. pgxRawPool/pgxRawConn below are the only place real
// pgxpool types are named.
type rawPool interface {
	Acquire(ctx context.Context) (rawConn, error)
	Close()
	Stat() rawStat
}

type rawConn interface {
	Release()
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type rawStat interface {
	TotalConns() int32
	IdleConns() int32
}

type pgxRawPool struct{ p *pgxpool.Pool }

func (r pgxRawPool) Acquire(ctx context.Context) (rawConn, error) {
	c, err := r.p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pgxRawConn{c}, nil
}

func (r pgxRawPool) Close()        { r.p.Close() }
func (r pgxRawPool) Stat() rawStat { return r.p.Stat() }

type pgxRawConn struct{ c *pgxpool.Conn }

func (r pgxRawConn) Release() { r.c.Release() }
func (r pgxRawConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return r.c.QueryRow(ctx, sql, args...)
}
func (r pgxRawConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return r.c.Query(ctx, sql, args...)
}

// Pool is a bounded set of connections to the backing database.
type Pool struct {
	raw            rawPool
	acquireTimeout time.Duration
	connString     string
}

// Open parses cfg.ConnString, applies PoolSize/IdleTimeout/MaxLifetime to
// a pgxpool.Config, and establishes the pool. It does not verify
// connectivity; the first Acquire does.
func Open(ctx context.Context, cfg Config) (*Pool, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, errs.NewDatabase(errs.Connection, err)
	}
	if cfg.PoolSize > 0 {
		pgxCfg.MaxConns = cfg.PoolSize
	}
	if cfg.IdleTimeout > 0 {
		pgxCfg.MaxConnIdleTime = cfg.IdleTimeout
	}
	if cfg.MaxLifetime > 0 {
		pgxCfg.MaxConnLifetime = cfg.MaxLifetime
	}

	raw, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, errs.NewDatabase(errs.Connection, err)
	}
	return newPool(pgxRawPool{raw}, cfg), nil
}

func newPool(raw rawPool, cfg Config) *Pool {
	return &Pool{raw: raw, acquireTimeout: cfg.AcquireTimeout, connString: cfg.ConnString}
}

// Acquire checks out a connection, applying the configured acquire
// timeout. The caller must call Release when done.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}
	raw, err := p.raw.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.New(errs.PoolTimeout, "timed out waiting for a free connection", err)
		}
		return nil, errs.NewDatabase(errs.Connection, err)
	}
	return &Conn{raw: raw}, nil
}

// Close waits for in-use connections to finish and shuts the pool down.
func (p *Pool) Close() { p.raw.Close() }

// Size reports the number of connections currently established, in use
// or idle.
func (p *Pool) Size() int32 { return p.raw.Stat().TotalConns() }

// IdleConnections reports the number of established connections that are
// not currently checked out.
func (p *Pool) IdleConnections() int32 { return p.raw.Stat().IdleConns() }

// Conn is a single checked-out connection. It implements dbproto.Querier.
type Conn struct {
	raw rawConn
}

func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) dbproto.Row {
	return c.raw.QueryRow(ctx, sql, args...)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (dbproto.Rows, error) {
	rows, err := c.raw.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Release returns the connection to the pool.
func (c *Conn) Release() { c.raw.Release() }

var _ dbproto.Querier = (*Conn)(nil)
