// Package pool manages a bounded set of connections to the backing
// Postgres-compatible database, wrapping github.com/jackc/pgx/v5/pgxpool.
// It applies the acquire/idle/lifetime timeouts the registry is
// configured with and translates pgx's own errors into the registry's
// error taxonomy: an acquire that outlives its deadline becomes
// PoolTimeout, and any other acquire failure (a closed pool included)
// becomes Database{Connection}.
//
// Acquire and its underlying pgxpool.Pool are abstracted behind the
// rawPool/rawConn interfaces so that construction and acquire/release
// bookkeeping can be exercised in tests without a live database; only
// Open itself talks to pgxpool directly.
package pool
