package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("filing", "ACME", "revenue", "10-K")
	b := Key("filing", "ACME", "revenue", "10-K")
	if a != b {
		t.Errorf("same parts produced different keys: %s vs %s", a, b)
	}

	c := Key("filing", "ACME", "revenue", "10-Q")
	if a == c {
		t.Error("different parts produced the same key")
	}

	// Part boundaries must matter: ("ab","c") != ("a","bc")
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("key ignores part boundaries")
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)

	if err := m.Set("k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	if val, found := m.Get("k"); !found || string(val) != "v" {
		t.Fatalf("expected hit before expiry, got found=%v val=%q", found, val)
	}

	time.Sleep(40 * time.Millisecond)

	if _, found := m.Get("k"); found {
		t.Error("expected miss after TTL expiry")
	}
}

func TestDisk_RoundTripAndExpiry(t *testing.T) {
	d := NewDisk(t.TempDir(), time.Minute)

	key := Key("search", "q1", "news")
	if err := d.Set(key, []byte("snippet"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	if val, found := d.Get(key); !found || string(val) != "snippet" {
		t.Fatalf("expected hit, got found=%v val=%q", found, val)
	}

	// An already-expired entry is treated as absent and purged.
	if err := d.Set("stale", []byte("x"), -time.Second); err != nil {
		t.Fatalf("set stale: %v", err)
	}
	if _, found := d.Get("stale"); found {
		t.Error("expected expired entry to be absent")
	}
	if _, found := d.Get("stale"); found {
		t.Error("expected expired entry to stay absent after purge")
	}
}

func TestSQLite_RoundTripAndExpiry(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"), time.Minute)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if val, found := s.Get("k"); !found || string(val) != "v" {
		t.Fatalf("expected hit, got found=%v val=%q", found, val)
	}

	if err := s.Set("stale", []byte("x"), -time.Second); err != nil {
		t.Fatalf("set stale: %v", err)
	}
	if _, found := s.Get("stale"); found {
		t.Error("expected expired row to be absent")
	}

	// Overwrite replaces the value.
	if err := s.Set("k", []byte("v2"), 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if val, _ := s.Get("k"); string(val) != "v2" {
		t.Errorf("expected overwritten value, got %q", val)
	}
}

func TestLayered_PromotesDurableHits(t *testing.T) {
	fast := NewMemory(time.Minute, time.Minute)
	durable := NewMemory(time.Minute, time.Minute)
	l := NewLayered(fast, durable)

	// Seed only the durable layer.
	if err := durable.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if val, found := l.Get("k"); !found || string(val) != "v" {
		t.Fatalf("expected durable hit through layered cache")
	}

	// Hit should now be served from the fast layer.
	if _, found := fast.Get("k"); !found {
		t.Error("expected value promoted to fast layer")
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory(time.Minute, time.Minute)
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			key := Key("worker", string(rune('a'+n)))
			for j := 0; j < 100; j++ {
				_ = m.Set(key, []byte("v"), time.Minute)
				m.Get(key)
			}
		}(i)
	}

	for i := 0; i < 8; i++ {
		<-done
	}
}
