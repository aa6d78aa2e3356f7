// Copyright (c) 2025 BVK Chaitanya

package syncmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestMap(t *testing.T) {
	var m Map[string, int]

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Store(fmt.Sprintf("key-%d", i), i)
		}()
	}
	wg.Wait()

	if n := m.Len(); n != 50 {
		t.Fatalf("want 50 entries, got %d", n)
	}
	if v, loaded := m.LoadOrStore("key-7", 100); !loaded || v != 7 {
		t.Fatalf("LoadOrStore: want existing 7, got %d (%t)", v, loaded)
	}

	sum := 0
	for _, v := range m.All() {
		sum += v
	}
	if sum != 49*50/2 {
		t.Fatalf("want sum %d, got %d", 49*50/2, sum)
	}

	m.Delete("key-7")
	if v, loaded := m.LoadOrStore("key-7", 100); loaded || v != 100 {
		t.Fatalf("want key-7 deleted, got %d (%t)", v, loaded)
	}
}
