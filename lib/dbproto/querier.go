package dbproto

import "context"

// Row is the narrow subset of pgx.Row that dbproto needs. *pgxpool.Conn's
// QueryRow already returns a pgx.Row value, which satisfies this
// interface structurally, and a test fake can implement it directly
// without pulling in pgx.
type Row interface {
	Scan(dest ...any) error
}

// Rows is the narrow subset of pgx.Rows that dbproto needs.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier is a single database connection capable of running the
// registry's statements. *pool.Conn implements it by wrapping a pooled
// *pgxpool.Conn; tests implement it with an in-memory fake.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}
