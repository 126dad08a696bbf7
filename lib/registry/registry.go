package registry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sindri-systems/jsonreg/lib/cache"
	"github.com/sindri-systems/jsonreg/lib/canon"
	"github.com/sindri-systems/jsonreg/lib/dbproto"
	"github.com/sindri-systems/jsonreg/lib/errs"
	"github.com/sindri-systems/jsonreg/lib/gate"
	"github.com/sindri-systems/jsonreg/lib/pool"
)

// Registry is the public entry point: canonicalise -> cache -> gate ->
// pool -> DB protocol, wired together and given a bounded connection
// pool and cache at construction time.
type Registry struct {
	pool    connPool
	cache   *cache.Cache
	gate    *gate.Gate
	stmts   *dbproto.Statements
	metrics *registryMetrics
	closed  atomic.Bool
}

// Open validates cfg's identifiers, opens the connection pool, and
// returns a ready Registry. It does not create the schema; the caller's
// table must already exist with a unique index on the JSON column.
func Open(ctx context.Context, cfg Config) (*Registry, error) {
	cfg = cfg.withDefaults()

	stmts, err := dbproto.New(cfg.Table, cfg.IDColumn, cfg.JSONColumn)
	if err != nil {
		return nil, err
	}

	p, err := pool.Open(ctx, pool.Config{
		ConnString:     cfg.ConnString,
		PoolSize:       cfg.PoolSize,
		AcquireTimeout: cfg.AcquireTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxLifetime:    cfg.MaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	return newRegistry(poolAdapter{p}, stmts, cfg), nil
}

func newRegistry(p connPool, stmts *dbproto.Statements, cfg Config) *Registry {
	r := &Registry{
		pool:  p,
		cache: cache.New(cfg.LRUCacheSize),
		gate:  gate.New(),
		stmts: stmts,
	}
	r.metrics = newRegistryMetrics(fmt.Sprintf("%s.%s", cfg.Table, cfg.JSONColumn), r)
	return r
}

// RegisterObject canonicalises raw, resolves it through the cache and
// single-flight gate, and returns its id.
func (r *Registry) RegisterObject(ctx context.Context, raw []byte) (int32, error) {
	r.metrics.registerTotal.Inc()

	id, err := r.registerObject(ctx, raw)
	if err != nil {
		r.metrics.registerErrors.Inc()
	}
	return id, err
}

func (r *Registry) registerObject(ctx context.Context, raw []byte) (int32, error) {
	if r.closed.Load() {
		return 0, errs.New(errs.PoolClosed, "registry is closed", nil)
	}

	key, err := canon.Bytes(raw)
	if err != nil {
		return 0, err
	}
	keyStr := string(key)

	if id, ok := r.cache.Get(keyStr); ok {
		return id, nil
	}

	id, err := r.gate.Resolve(ctx, keyStr, func(ctx context.Context) (int32, error) {
		return r.resolveOne(ctx, key)
	})
	if err != nil {
		return 0, err
	}

	r.cache.Put(keyStr, id)
	return id, nil
}

// resolveOne runs Lookup-then-Insert against a pooled connection. It is
// the single-flight producer for one fingerprint.
func (r *Registry) resolveOne(ctx context.Context, canonical []byte) (int32, error) {
	c, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer c.Release()

	start := time.Now()
	id, found, err := r.stmts.Lookup(ctx, c, canonical)
	r.metrics.observeDBLatency(time.Since(start))
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	start = time.Now()
	id, err = r.stmts.Insert(ctx, c, canonical)
	r.metrics.observeDBLatency(time.Since(start))
	if err != nil {
		return 0, err
	}
	return id, nil
}

// positioned pairs an input's canonical key with its position in the
// caller's original batch.
type positioned struct {
	position int
	key      string
}

// RegisterBatchObjects canonicalises every value in raw, resolves the
// distinct missing keys in one batch round-trip per chunk of at most
// batchChunkSize keys, and returns ids in input order.
func (r *Registry) RegisterBatchObjects(ctx context.Context, raw [][]byte) ([]int32, error) {
	r.metrics.batchTotal.Inc()
	r.metrics.batchItems.Add(len(raw))

	ids, err := r.registerBatchObjects(ctx, raw)
	if err != nil {
		r.metrics.registerErrors.Inc()
	}
	return ids, err
}

func (r *Registry) registerBatchObjects(ctx context.Context, raw [][]byte) ([]int32, error) {
	if r.closed.Load() {
		return nil, errs.New(errs.PoolClosed, "registry is closed", nil)
	}

	ids := make([]int32, len(raw))
	var misses []positioned

	for i, v := range raw {
		key, err := canon.Bytes(v)
		if err != nil {
			return nil, errs.New(errs.InvalidJson, fmt.Sprintf("value at position %d: %v", i, err), err)
		}
		keyStr := string(key)
		if id, ok := r.cache.Get(keyStr); ok {
			ids[i] = id
			continue
		}
		misses = append(misses, positioned{position: i, key: keyStr})
	}

	if len(misses) == 0 {
		return ids, nil
	}

	// Deduplicate misses by canonical key, preserving first-occurrence
	// order, then resolve one id per distinct key.
	order := make([]string, 0, len(misses))
	positionsByKey := make(map[string][]int, len(misses))
	for _, m := range misses {
		if _, seen := positionsByKey[m.key]; !seen {
			order = append(order, m.key)
		}
		positionsByKey[m.key] = append(positionsByKey[m.key], m.position)
	}

	for start := 0; start < len(order); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(order) {
			end = len(order)
		}
		chunk := order[start:end]

		resolved, err := r.resolveBatch(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for i, key := range chunk {
			id := resolved[i]
			r.cache.Put(key, id)
			for _, pos := range positionsByKey[key] {
				ids[pos] = id
			}
		}
	}

	return ids, nil
}

// resolveBatch resolves one chunk of distinct canonical keys through the
// single-flight gate, batching the actual database work for keys that
// are not already in flight elsewhere.
func (r *Registry) resolveBatch(ctx context.Context, keys []string) ([]int32, error) {
	results := make([]int32, len(keys))

	// Every key in the chunk goes through the gate so a key already
	// in flight (from a concurrent RegisterObject or another batch)
	// is coalesced rather than double-inserted; keys nobody is
	// resolving yet are gathered into one real batch insert.
	var toInsert []string
	var toInsertIdx []int
	calls := make([]*gate.Handle, len(keys))

	for i, k := range keys {
		h, isOwner := r.gate.Start(k)
		calls[i] = h
		if isOwner {
			toInsert = append(toInsert, k)
			toInsertIdx = append(toInsertIdx, i)
		}
	}

	if len(toInsert) > 0 {
		c, err := r.pool.Acquire(ctx)
		if err != nil {
			for _, idx := range toInsertIdx {
				calls[idx].Fail(err)
			}
		} else {
			start := time.Now()
			canonicals := make([][]byte, len(toInsert))
			for j, k := range toInsert {
				canonicals[j] = []byte(k)
			}
			rows, insErr := r.stmts.BatchInsert(ctx, c, canonicals)
			r.metrics.observeDBLatency(time.Since(start))
			c.Release()
			if insErr != nil {
				for _, idx := range toInsertIdx {
					calls[idx].Fail(insErr)
				}
			} else {
				byPosition := make(map[int64]int32, len(rows))
				for _, row := range rows {
					byPosition[row.Position] = row.ID
				}
				for j, idx := range toInsertIdx {
					id, ok := byPosition[int64(j+1)]
					if !ok {
						calls[idx].Fail(errs.NewDatabase(errs.Other, fmt.Errorf("batch insert returned no row for position %d", j+1)))
						continue
					}
					calls[idx].Succeed(id)
				}
			}
		}
	}

	for i := range keys {
		id, err := calls[i].Wait(ctx)
		if err != nil {
			return nil, err
		}
		results[i] = id
	}
	return results, nil
}

// Close drains and closes the connection pool. Subsequent operations
// fail with PoolClosed.
func (r *Registry) Close() {
	r.closed.Store(true)
	r.pool.Close()
}

// IsClosed reports whether Close has been called.
func (r *Registry) IsClosed() bool { return r.closed.Load() }

// PoolSize reports the number of connections currently established.
func (r *Registry) PoolSize() int32 { return r.pool.Size() }

// IdleConnections reports the number of established connections not
// currently checked out.
func (r *Registry) IdleConnections() int32 { return r.pool.IdleConnections() }

// CacheHits returns the cache hit counter snapshot.
func (r *Registry) CacheHits() uint64 { return r.cache.Hits() }

// CacheMisses returns the cache miss counter snapshot.
func (r *Registry) CacheMisses() uint64 { return r.cache.Misses() }

// CacheHitRate returns hits*100/(hits+misses), or 0 when both are zero.
func (r *Registry) CacheHitRate() float64 { return r.cache.HitRate() }

// DBLatency returns a snapshot of round-trip latency observed while
// resolving cache misses.
func (r *Registry) DBLatency() DBLatencySnapshot { return r.metrics.snapshot() }
