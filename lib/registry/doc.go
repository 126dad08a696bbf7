// Package registry orchestrates the deduplication pipeline: canonicalise
// -> cache -> single-flight gate -> pool -> DB protocol. It is the only
// package callers construct directly.
//
// Registry.RegisterObject and RegisterBatchObjects implement the
// algorithms below the pipeline stages, following the shape of
// ValentinKolb-dKV's lib/db/engines/maple sharded engine: a thin
// orchestrating type composed from independently testable pieces, with
// its own read-only status accessors backed by atomics the pieces
// already expose.
package registry
