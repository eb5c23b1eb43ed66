package vm

import (
	"testing"
)

func TestInlineCacheEmpty(t *testing.T) {
	ic := &InlineCache{State: CacheEmpty}

	if m := ic.Lookup(NewClass("Test", nil)); m != nil {
		t.Error("Expected nil from empty cache")
	}
	if ic.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", ic.Misses)
	}
}

func TestInlineCacheMonomorphic(t *testing.T) {
	ic := &InlineCache{State: CacheEmpty}
	class := NewClass("Test", nil)
	method := &Method{Name: "test"}

	ic.Update(class, method)
	if ic.State != CacheMonomorphic {
		t.Errorf("Expected monomorphic state, got %v", ic.State)
	}
	if m := ic.Lookup(class); m != method {
		t.Error("Expected cache hit")
	}
	if m := ic.Lookup(NewClass("Other", nil)); m != nil {
		t.Error("Expected cache miss for different class")
	}
	if ic.Hits != 1 || ic.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d and %d", ic.Hits, ic.Misses)
	}
}

func TestInlineCacheStates(t *testing.T) {
	tests := []struct {
		classes int
		state   CacheState
		count   int
	}{
		{0, CacheEmpty, 0},
		{1, CacheMonomorphic, 1},
		{2, CachePolymorphic, 2},
		{MaxPICEntries, CachePolymorphic, MaxPICEntries},
		{MaxPICEntries + 1, CacheMegamorphic, 0},
	}
	for _, tt := range tests {
		ic := &InlineCache{}
		classes := make([]*Class, tt.classes)
		methods := make([]*Method, tt.classes)
		for i := range classes {
			classes[i] = NewClass("C", nil)
			methods[i] = &Method{Name: "m"}
			ic.Update(classes[i], methods[i])
		}
		if ic.State != tt.state || ic.Count != tt.count {
			t.Errorf("%d classes: got %v/%d, want %v/%d", tt.classes, ic.State, ic.Count, tt.state, tt.count)
		}
		if tt.state == CachePolymorphic {
			for i := range classes {
				if m := ic.Lookup(classes[i]); m != methods[i] {
					t.Errorf("%d classes: expected hit for class %d", tt.classes, i)
				}
			}
		}
		if tt.state == CacheMegamorphic {
			if m := ic.Lookup(classes[0]); m != nil {
				t.Error("Expected miss from megamorphic cache")
			}
		}
	}
}

func TestInlineCacheIgnoresFailedLookups(t *testing.T) {
	ic := &InlineCache{}
	ic.Update(NewClass("Test", nil), nil)
	if ic.State != CacheEmpty {
		t.Errorf("Expected empty state, got %v", ic.State)
	}
}

func TestInlineCacheHitRate(t *testing.T) {
	ic := &InlineCache{}
	class := NewClass("Test", nil)
	ic.Update(class, &Method{Name: "test"})

	for i := 0; i < 10; i++ {
		ic.Lookup(class)
	}
	other := NewClass("Other", nil)
	ic.Lookup(other)
	ic.Lookup(other)

	// 10 hits / 12 total
	if rate := ic.HitRate(); rate < 83.0 || rate > 84.0 {
		t.Errorf("Expected ~83%% hit rate, got %.2f%%", rate)
	}
}

func TestInlineCacheInvalidateKeepsCounters(t *testing.T) {
	ic := &InlineCache{}
	class := NewClass("Test", nil)
	ic.Update(class, &Method{Name: "test"})
	ic.Lookup(class)

	ic.invalidate(7)
	if ic.State != CacheEmpty || ic.serial != 7 {
		t.Errorf("Expected empty cache at serial 7, got %v at %d", ic.State, ic.serial)
	}
	if ic.Hits != 1 {
		t.Errorf("Expected hits to survive invalidation, got %d", ic.Hits)
	}
	ic.Reset()
	if ic.Hits != 0 || ic.Misses != 0 {
		t.Error("Expected Reset to clear counters")
	}
}

func TestInlineCacheTable(t *testing.T) {
	table := NewInlineCacheTable()

	a := table.GetOrCreate("<calldata!mid:foo, argc:0>")
	if a != table.GetOrCreate("<calldata!mid:foo, argc:0>") {
		t.Error("Expected same cache for same key")
	}
	if a == table.GetOrCreate("<calldata!mid:bar, argc:0>") {
		t.Error("Expected different cache for different key")
	}
	if table.Get("missing") != nil {
		t.Error("Expected nil for unknown key")
	}
}

func TestInlineCacheTableStats(t *testing.T) {
	table := NewInlineCacheTable()
	class := NewClass("Test", nil)
	method := &Method{Name: "test"}

	mono := table.GetOrCreate("mono")
	mono.Update(class, method)
	mono.Lookup(class)

	table.GetOrCreate("empty")

	poly := table.GetOrCreate("poly")
	poly.Update(NewClass("A", nil), method)
	poly.Update(NewClass("B", nil), method)
	poly.Lookup(NewClass("C", nil))

	stats := table.ICStats()
	want := ICStats{
		TotalCallSites:  3,
		Monomorphic:     1,
		Polymorphic:     1,
		Empty:           1,
		TotalHits:       1,
		TotalMisses:     1,
		HitRate:         50,
		MonomorphicRate: 50,
	}
	if stats != want {
		t.Errorf("got %+v, want %+v", stats, want)
	}
}

func BenchmarkInlineCacheLookup(b *testing.B) {
	class := NewClass("Test", nil)
	method := &Method{Name: "test"}

	b.Run("Monomorphic_Hit", func(b *testing.B) {
		ic := &InlineCache{}
		ic.Update(class, method)
		for i := 0; i < b.N; i++ {
			ic.Lookup(class)
		}
	})

	b.Run("Polymorphic_Hit_Last", func(b *testing.B) {
		ic := &InlineCache{}
		classes := make([]*Class, 4)
		for i := range classes {
			classes[i] = NewClass("C", nil)
			ic.Update(classes[i], method)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			ic.Lookup(classes[3])
		}
	})

	b.Run("Full_Lookup", func(b *testing.B) {
		sub := NewClass("Sub", class)
		class.AddMethod(method)
		for i := 0; i < b.N; i++ {
			sub.LookupMethod("test")
		}
	})
}
