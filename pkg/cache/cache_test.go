package cache

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	tests := []struct {
		method string
		url    string
		want   string
	}{
		{"GET", "https://example.com/a?b=c", "GET https://example.com/a?b=c"},
		{"get", "https://example.com/", "GET https://example.com/"},
		{"POST", "https://example.com/api", "POST https://example.com/api"},
	}
	for _, tt := range tests {
		if got := Key(tt.method, tt.url); got != tt.want {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.method, tt.url, got, tt.want)
		}
	}
}

func TestCacheable(t *testing.T) {
	tests := []struct {
		name   string
		method string
		status int
		want   bool
	}{
		{"GET 200", "GET", 200, true},
		{"GET 204", "GET", 204, true},
		{"lowercase get 200", "get", 200, true},
		{"GET 404", "GET", 404, false},
		{"GET 500", "GET", 500, false},
		{"GET 301", "GET", 301, false},
		{"POST 200", "POST", 200, false},
		{"HEAD 200", "HEAD", 200, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cacheable(tt.method, tt.status); got != tt.want {
				t.Errorf("Cacheable(%q, %d) = %v, want %v", tt.method, tt.status, got, tt.want)
			}
		})
	}
}

func TestResponseCache_PutAndGet(t *testing.T) {
	c := New(time.Hour, 100, 0)
	defer c.Close()

	header := http.Header{"Content-Type": []string{"application/json"}}
	c.Put("GET https://example.com/api", 200, header, []byte(`{"data":"x"}`))

	entry, ok := c.Get("GET https://example.com/api")
	if !ok {
		t.Fatal("Get() returned false for existing key")
	}
	if entry.Status != 200 {
		t.Errorf("Status = %d, want 200", entry.Status)
	}
	if got := entry.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if string(entry.Body) != `{"data":"x"}` {
		t.Errorf("Body = %q", entry.Body)
	}

	if _, ok := c.Get("GET https://example.com/other"); ok {
		t.Error("Get() returned true for non-existent key")
	}
}

func TestResponseCache_Expiry(t *testing.T) {
	c := New(time.Minute, 100, 0)
	defer c.Close()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("k", 200, nil, []byte("body"))

	if _, ok := c.Get("k"); !ok {
		t.Error("Get() failed immediately after Put()")
	}

	// Exactly at the TTL boundary the entry is still served.
	current = current.Add(time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Error("Get() failed at exact TTL boundary")
	}

	// Strictly past the TTL it is a miss and evicted.
	current = current.Add(time.Nanosecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Get() returned true for expired key")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after lazy eviction, want 0", c.Size())
	}
}

func TestResponseCache_NoExpiry(t *testing.T) {
	c := New(0, 100, 0)
	defer c.Close()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("k", 200, nil, []byte("body"))

	current = current.Add(24 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Error("Get() failed for non-expiring cache")
	}
}

func TestResponseCache_LRUEviction(t *testing.T) {
	c := New(time.Hour, 3, 0)
	defer c.Close()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("k1", 200, nil, []byte("1"))
	c.Put("k2", 200, nil, []byte("2"))
	c.Put("k3", 200, nil, []byte("3"))

	// Touch k1 and k2 so k3 becomes least recently used.
	current = current.Add(time.Second)
	c.Get("k1")
	current = current.Add(time.Second)
	c.Get("k2")

	c.Put("k4", 200, nil, []byte("4"))

	if _, ok := c.Get("k1"); !ok {
		t.Error("k1 was evicted but should have been kept")
	}
	if _, ok := c.Get("k2"); !ok {
		t.Error("k2 was evicted but should have been kept")
	}
	if _, ok := c.Get("k3"); ok {
		t.Error("k3 should have been evicted")
	}
	if _, ok := c.Get("k4"); !ok {
		t.Error("k4 should be in cache")
	}
}

func TestResponseCache_NoEvictionWhenUpdating(t *testing.T) {
	c := New(time.Hour, 2, 0)
	defer c.Close()

	c.Put("k1", 200, nil, []byte("1"))
	c.Put("k2", 200, nil, []byte("2"))

	c.Put("k1", 200, nil, []byte("updated"))

	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
	entry, ok := c.Get("k1")
	if !ok || string(entry.Body) != "updated" {
		t.Errorf("k1 = %q, want updated", entry.Body)
	}
	if _, ok := c.Get("k2"); !ok {
		t.Error("k2 should still be in cache")
	}
}

func TestResponseCache_MaxBodyBytes(t *testing.T) {
	c := New(time.Hour, 100, 8)
	defer c.Close()

	c.Put("small", 200, nil, []byte("12345678"))
	c.Put("large", 200, nil, []byte("123456789"))

	if _, ok := c.Get("small"); !ok {
		t.Error("body at the size limit should be cached")
	}
	if _, ok := c.Get("large"); ok {
		t.Error("oversized body should not be cached")
	}
}

func TestResponseCache_SnapshotIsolation(t *testing.T) {
	c := New(time.Hour, 100, 0)
	defer c.Close()

	header := http.Header{"X-Thing": []string{"original"}}
	c.Put("k", 200, header, []byte("original"))

	entry, _ := c.Get("k")
	entry.Body[0] = 'X'
	entry.Header.Set("X-Thing", "mutated")

	again, _ := c.Get("k")
	if string(again.Body) != "original" {
		t.Errorf("stored body mutated through snapshot: %q", again.Body)
	}
	if got := again.Header.Get("X-Thing"); got != "original" {
		t.Errorf("stored header mutated through snapshot: %q", got)
	}
}

func TestResponseCache_Sweep(t *testing.T) {
	c := New(time.Minute, 100, 0)
	defer c.Close()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("k1", 200, nil, []byte("1"))
	c.Put("k2", 200, nil, []byte("2"))

	current = current.Add(2 * time.Minute)
	c.Put("k3", 200, nil, []byte("3"))

	removed := c.Sweep()
	if removed != 2 {
		t.Errorf("Sweep() removed %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d after sweep, want 1", c.Size())
	}
	if _, ok := c.Get("k3"); !ok {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestResponseCache_DeleteAndClear(t *testing.T) {
	c := New(time.Hour, 100, 0)
	defer c.Close()

	c.Put("k1", 200, nil, []byte("1"))
	c.Put("k2", 200, nil, []byte("2"))

	c.Delete("k1")
	if _, ok := c.Get("k1"); ok {
		t.Error("Get() succeeded after Delete()")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1 after Delete()", c.Size())
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after Clear()", c.Size())
	}
}

func TestResponseCache_ConcurrentAccess(t *testing.T) {
	c := New(time.Hour, 1000, 0)
	defer c.Close()

	concurrency := 100
	opsPerGoroutine := 100

	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				key := string(rune('A' + (id % 26)))
				c.Put(key, 200, nil, []byte("body"))
			}
		}(i)
	}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				key := string(rune('A' + (id % 26)))
				c.Get(key)
			}
		}(i)
	}

	wg.Wait()

	c.Put("test", 200, nil, []byte("body"))
	if _, ok := c.Get("test"); !ok {
		t.Error("cache broken after concurrent access")
	}
}
