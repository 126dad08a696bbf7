// Package errs defines the registry's error kinds: InvalidJson,
// InvalidIdentifier, PoolTimeout, PoolClosed, Database{SubKind}, and
// Cancelled, plus the connection-string scrubbing helper every layer that
// can see a raw DSN must apply before returning an error.
package errs
