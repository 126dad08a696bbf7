package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sindri-systems/jsonreg/lib/errs"
)

type fakeRawPool struct {
	acquireDelay time.Duration
	acquireErr   error
	acquired     int
	closed       bool
	total, idle  int32
}

func (f *fakeRawPool) Acquire(ctx context.Context) (rawConn, error) {
	if f.acquireDelay > 0 {
		select {
		case <-time.After(f.acquireDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired++
	return &fakeRawConn{}, nil
}

func (f *fakeRawPool) Close()        { f.closed = true }
func (f *fakeRawPool) Stat() rawStat { return fakeStat{f.total, f.idle} }

type fakeStat struct{ total, idle int32 }

func (s fakeStat) TotalConns() int32 { return s.total }
func (s fakeStat) IdleConns() int32  { return s.idle }

type fakeRawConn struct{ released bool }

func (c *fakeRawConn) Release() { c.released = true }
func (c *fakeRawConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (c *fakeRawConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func TestAcquireSucceedsWithinTimeout(t *testing.T) {
	raw := &fakeRawPool{}
	p := newPool(raw, Config{AcquireTimeout: 50 * time.Millisecond})

	conn, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	if raw.acquired != 1 {
		t.Errorf("acquired = %d, want 1", raw.acquired)
	}
	conn.Release()
	if !conn.raw.(*fakeRawConn).released {
		t.Error("expected underlying connection to be released")
	}
}

func TestAcquireTimesOut(t *testing.T) {
	raw := &fakeRawPool{acquireDelay: 50 * time.Millisecond}
	p := newPool(raw, Config{AcquireTimeout: 5 * time.Millisecond})

	_, err := p.Acquire(context.Background())
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.PoolTimeout {
		t.Fatalf("expected PoolTimeout, got %v", err)
	}
}

func TestAcquireWrapsUnderlyingError(t *testing.T) {
	boom := errors.New("connection refused")
	raw := &fakeRawPool{acquireErr: boom}
	p := newPool(raw, Config{})

	_, err := p.Acquire(context.Background())
	sub, ok := errs.AsDatabase(err)
	if !ok || sub != errs.Connection {
		t.Fatalf("expected Database{Connection}, got %v", err)
	}
}

func TestSizeAndIdleConnectionsReflectStat(t *testing.T) {
	raw := &fakeRawPool{total: 5, idle: 2}
	p := newPool(raw, Config{})

	if p.Size() != 5 {
		t.Errorf("Size() = %d, want 5", p.Size())
	}
	if p.IdleConnections() != 2 {
		t.Errorf("IdleConnections() = %d, want 2", p.IdleConnections())
	}
}

func TestCloseDelegatesToRawPool(t *testing.T) {
	raw := &fakeRawPool{}
	p := newPool(raw, Config{})
	p.Close()
	if !raw.closed {
		t.Error("expected Close() to close the underlying pool")
	}
}
