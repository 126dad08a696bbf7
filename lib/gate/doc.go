// Package gate coalesces concurrent producers for the same fingerprint
// into a single in-flight resolution, so the registry issues at most one
// database round-trip per distinct canonical key even under arbitrary
// concurrent submission.
//
// The shape is lifted from ValentinKolb-dKV's RPC client transport
// (rpc/transport/base/client.go), which solves the same coordination
// problem for in-flight request/response pairs: a puzpuzpuz/xsync.MapOf
// keyed by an identifier, holding a completion channel that late arrivals
// wait on instead of issuing their own request. Here the key is the
// canonical fingerprint and the "response" is a resolved id.
package gate
