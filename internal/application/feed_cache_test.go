package application

import (
	"testing"
	"time"
)

func TestFeedCacheStoreAndInvalidate(t *testing.T) {
	t.Parallel()

	cache := newFeedCache(time.Minute, 4)
	cache.Store("v1", []byte("BEGIN:VCALENDAR"))

	got, ok := cache.Get("v1")
	if !ok || string(got) != "BEGIN:VCALENDAR" {
		t.Fatalf("expected cached feed, got %q (ok=%v)", got, ok)
	}

	got[0] = 'X'
	again, _ := cache.Get("v1")
	if string(again) != "BEGIN:VCALENDAR" {
		t.Fatalf("expected cached copy to be isolated from callers, got %q", again)
	}

	cache.Invalidate("v1", "unknown")
	if _, ok := cache.Get("v1"); ok {
		t.Fatalf("expected invalidated entry to be gone")
	}
}

func TestFeedCacheExpires(t *testing.T) {
	t.Parallel()

	cache := newFeedCache(20*time.Millisecond, 4)
	cache.Store("v1", []byte("feed"))
	time.Sleep(60 * time.Millisecond)

	if _, ok := cache.Get("v1"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestFeedCacheEvictsOldest(t *testing.T) {
	t.Parallel()

	cache := newFeedCache(time.Minute, 2)
	cache.Store("a", []byte("a"))
	cache.Store("b", []byte("b"))
	cache.Store("c", []byte("c"))

	if _, ok := cache.Get("a"); ok {
		t.Fatalf("expected least recently used entry to be evicted")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Fatalf("expected newest entry to remain")
	}

	cache.Purge()
	if _, ok := cache.Get("c"); ok {
		t.Fatalf("expected purge to clear entries")
	}
}

func TestFeedCacheNilSafe(t *testing.T) {
	t.Parallel()

	var cache *feedCache
	cache.Store("v1", []byte("x"))
	cache.Invalidate("v1")
	if _, ok := cache.Get("v1"); ok {
		t.Fatalf("nil cache should never hit")
	}
}

func TestFeedCacheStoreIfCurrent(t *testing.T) {
	t.Parallel()

	cache := newFeedCache(time.Minute, 4)
	generation := cache.Generation("v1")
	cache.Invalidate("v1")

	if cache.StoreIfCurrent("v1", generation, []byte("stale")) {
		t.Fatalf("expected store with an outdated generation to be rejected")
	}
	if _, ok := cache.Get("v1"); ok {
		t.Fatalf("expected no entry after rejected store")
	}

	if !cache.StoreIfCurrent("v1", cache.Generation("v1"), []byte("fresh")) {
		t.Fatalf("expected store with the current generation to succeed")
	}
	if got, ok := cache.Get("v1"); !ok || string(got) != "fresh" {
		t.Fatalf("expected fresh feed, got %q (ok=%v)", got, ok)
	}
	if cache.Generation("other") != 0 {
		t.Fatalf("expected untouched venues to start at generation zero")
	}
}
