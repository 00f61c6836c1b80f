package cache

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := NewTTLCache[string, int]()

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set("a", 42, 0)
	value, ok := c.Get("a")
	if !ok || value != 42 {
		t.Fatalf("expected 42, got %d ok=%v", value, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestExpiry(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("short", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Fatalf("expected entry to expire")
	}

	c.Set("forever", "v", 0)
	if _, ok := c.Get("forever"); !ok {
		t.Fatalf("zero ttl must never expire")
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var c *TTLCache[string, int]
	c.Set("a", 1, 0)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("nil cache must miss")
	}
}
