package cache

import "testing"

func TestGetMissThenPutThenHit(t *testing.T) {
	c := New(10)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Put("k", 42)
	id, ok := c.Get("k")
	if !ok || id != 42 {
		t.Fatalf("Get() = %d, %v, want 42, true", id, ok)
	}
	if c.Hits() != 1 || c.Misses() != 1 {
		t.Errorf("hits=%d misses=%d, want 1, 1", c.Hits(), c.Misses())
	}
}

func TestZeroCapacityDisablesCaching(t *testing.T) {
	c := New(0)
	c.Put("k", 1)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss: capacity zero must never cache")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if c.Misses() != 1 {
		t.Errorf("Misses() = %d, want 1", c.Misses())
	}
}

// TestCapacityEvictsLeastRecentlyUsed checks that with a capacity of 2,
// submitting three distinct keys then resubmitting the first reports a
// miss for the resubmission because it was evicted.
func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a", the least recently used

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected \"a\" to have been evicted")
	}
	if id, ok := c.Get("b"); !ok || id != 2 {
		t.Fatalf("Get(b) = %d, %v, want 2, true", id, ok)
	}
}

func TestAccessPromotesRecency(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")       // promotes "a"; "b" is now least recently used
	c.Put("c", 3)    // evicts "b", not "a"

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected \"b\" to have been evicted")
	}
	if id, ok := c.Get("a"); !ok || id != 1 {
		t.Fatalf("Get(a) = %d, %v, want 1, true", id, ok)
	}
}

func TestHitRate(t *testing.T) {
	c := New(10)
	if rate := c.HitRate(); rate != 0 {
		t.Errorf("HitRate() on empty counters = %v, want 0", rate)
	}
	c.Put("k", 1)
	c.Get("k")     // hit
	c.Get("other") // miss
	if rate := c.HitRate(); rate != 50 {
		t.Errorf("HitRate() = %v, want 50", rate)
	}
}
