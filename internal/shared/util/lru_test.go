package util

import (
	"fmt"
	"sync"
	"testing"
)

func TestLRUCache_GetPut(t *testing.T) {
	c := NewLRUCache[string, int](3)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	if c.Len() != 3 {
		t.Fatalf("expected len 3, got %d", c.Len())
	}

	for k, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		v, ok := c.Get(k)
		if !ok || v != want {
			t.Fatalf("key %q: want %d got %d (hit=%v)", k, want, v, ok)
		}
	}

	c.Put("a", 10)
	if v, _ := c.Get("a"); v != 10 || c.Len() != 3 {
		t.Fatalf("update in place failed: v=%d len=%d", v, c.Len())
	}
}

func TestLRUCache_EvictsLeastRecent(t *testing.T) {
	c := NewLRUCache[string, int](2)
	var evicted []string
	c.OnEvict(func(k string, _ int) { evicted = append(evicted, k) })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // b is now least recent
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("unexpected evictions: %v", evicted)
	}

	c.Evict("a")
	c.Evict("missing")
	if c.Len() != 1 {
		t.Fatalf("expected len 1 after explicit evict, got %d", c.Len())
	}

	c.Clear()
	if c.Len() != 0 || c.Cap() != 2 {
		t.Fatalf("clear: len=%d cap=%d", c.Len(), c.Cap())
	}
}

func TestLRUCache_ZeroCapacity(t *testing.T) {
	c := NewLRUCache[int, int](0)
	c.Put(1, 1)
	c.Put(2, 2)
	if c.Len() != 1 || c.Cap() != 1 {
		t.Fatalf("expected capacity normalised to 1, len=%d cap=%d", c.Len(), c.Cap())
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[string, int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("%d-%d", g, i%80)
				c.Put(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Fatalf("cache exceeded capacity: %d", c.Len())
	}
}
