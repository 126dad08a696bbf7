// Package canon canonicalises arbitrary JSON values into a deterministic
// byte form: object members sorted by codepoint order, numbers normalised
// to a single textual form, strings escaped with a fixed minimal set, and
// no insignificant whitespace. Two values compare byte-equal under Bytes
// iff the backing database's native JSON type would compare them equal.
//
// Canonicalisation is the cache key, not the source of truth: the
// database's own equality is authoritative. See the numeric and string
// rules on formatNumber and encodeString for why this still has to be
// exact: a canonicaliser that
// equates two values the database distinguishes would silently merge two
// distinct registry entries.
package canon
