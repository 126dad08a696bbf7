// Package cache provides the registry's bounded canonical-key → id
// mapping. It wraps github.com/hashicorp/golang-lru/v2 for strict
// recency-based eviction and adds hit/miss counters for the stats
// surface, plus a capacity-zero mode (which golang-lru/v2 itself
// rejects at construction) that disables caching entirely.
package cache
