package registry

import "time"

const (
	defaultAcquireTimeout = 5 * time.Second
	defaultIdleTimeout    = 600 * time.Second
	defaultMaxLifetime    = 1800 * time.Second

	// batchChunkSize bounds how many distinct canonical keys one Batch
	// insert statement carries; larger inputs are segmented, preserving
	// order (see Registry.RegisterBatchObjects).
	batchChunkSize = 1000
)

// Config carries every construction parameter for a Registry.
type Config struct {
	// ConnString is a standard Postgres connection URL or keyword/value
	// string.
	ConnString string

	// Table, IDColumn, JSONColumn name the caller-provisioned schema.
	Table, IDColumn, JSONColumn string

	// PoolSize is the maximum number of simultaneous connections. Must
	// be >= 1.
	PoolSize int32

	// LRUCacheSize is the maximum number of entries the in-memory cache
	// holds. Zero disables caching.
	LRUCacheSize int

	// AcquireTimeout, IdleTimeout, and MaxLifetime override the pool
	// manager's defaults (5s / 600s / 1800s) when non-zero.
	AcquireTimeout time.Duration
	IdleTimeout    time.Duration
	MaxLifetime    time.Duration
}

func (c Config) withDefaults() Config {
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = defaultAcquireTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.MaxLifetime == 0 {
		c.MaxLifetime = defaultMaxLifetime
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1
	}
	return c
}
