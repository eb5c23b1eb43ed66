package vm

// Call-site caches for method dispatch.
//
// Each distinct call site (method name, argument count, flags and keyword
// names) owns a cache that remembers which method the receiver classes it
// has seen resolved to. Most sites only ever see one receiver class; a few
// see a handful; the rest fall back to a full ancestor walk every time.
// Any change to a method table bumps the VM serial, which empties every
// cache on its next use.

// CacheState represents the current state of a call-site cache.
type CacheState uint8

const (
	CacheEmpty       CacheState = iota // No cached lookup yet
	CacheMonomorphic                   // Single (class, method) cached
	CachePolymorphic                   // 2-6 entries
	CacheMegamorphic                   // Too many classes, use full lookup
)

func (s CacheState) String() string {
	switch s {
	case CacheMonomorphic:
		return "monomorphic"
	case CachePolymorphic:
		return "polymorphic"
	case CacheMegamorphic:
		return "megamorphic"
	}
	return "empty"
}

// MaxPICEntries is the maximum number of entries in a polymorphic cache.
const MaxPICEntries = 6

// InlineCacheEntry holds a single cached method lookup result.
type InlineCacheEntry struct {
	Class  *Class
	Method *Method
}

// InlineCache is the cache for one call site. It progresses through
// states: Empty -> Monomorphic -> Polymorphic -> Megamorphic.
type InlineCache struct {
	State   CacheState
	Entries [MaxPICEntries]InlineCacheEntry
	Count   int

	Hits   uint64
	Misses uint64

	// serial is the VM method serial the entries were recorded under.
	serial uint64
}

// Lookup returns the cached method for class, or nil on a miss.
func (ic *InlineCache) Lookup(class *Class) *Method {
	switch ic.State {
	case CacheMonomorphic, CachePolymorphic:
		for i := 0; i < ic.Count; i++ {
			if ic.Entries[i].Class == class {
				ic.Hits++
				return ic.Entries[i].Method
			}
		}
	}
	ic.Misses++
	return nil
}

// Update records a (class, method) pair, upgrading the cache state. Failed
// lookups are not cached.
func (ic *InlineCache) Update(class *Class, method *Method) {
	if method == nil {
		return
	}
	switch ic.State {
	case CacheEmpty:
		ic.State = CacheMonomorphic
		ic.Entries[0] = InlineCacheEntry{Class: class, Method: method}
		ic.Count = 1

	case CacheMonomorphic, CachePolymorphic:
		for i := 0; i < ic.Count; i++ {
			if ic.Entries[i].Class == class {
				return
			}
		}
		if ic.Count == MaxPICEntries {
			ic.State = CacheMegamorphic
			ic.clear()
			return
		}
		ic.State = CachePolymorphic
		ic.Entries[ic.Count] = InlineCacheEntry{Class: class, Method: method}
		ic.Count++

	case CacheMegamorphic:
	}
}

// HitRate returns the cache hit rate as a percentage (0-100).
func (ic *InlineCache) HitRate() float64 {
	return hitRate(ic.Hits, ic.Misses)
}

// Reset clears the cache back to the empty state, counters included.
func (ic *InlineCache) Reset() {
	ic.State = CacheEmpty
	ic.clear()
	ic.Hits = 0
	ic.Misses = 0
}

// invalidate drops the entries after a method table change but keeps the
// counters.
func (ic *InlineCache) invalidate(serial uint64) {
	ic.State = CacheEmpty
	ic.clear()
	ic.serial = serial
}

func (ic *InlineCache) clear() {
	ic.Count = 0
	for i := range ic.Entries {
		ic.Entries[i] = InlineCacheEntry{}
	}
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) * 100 / float64(total)
}

// InlineCacheTable holds the caches of every call site, keyed by the
// call site's CallData key.
type InlineCacheTable struct {
	caches map[string]*InlineCache
}

// NewInlineCacheTable creates an empty table.
func NewInlineCacheTable() *InlineCacheTable {
	return &InlineCacheTable{caches: make(map[string]*InlineCache)}
}

// GetOrCreate returns the cache for key, creating one if needed.
func (t *InlineCacheTable) GetOrCreate(key string) *InlineCache {
	if ic := t.caches[key]; ic != nil {
		return ic
	}
	ic := &InlineCache{State: CacheEmpty}
	t.caches[key] = ic
	return ic
}

// Get returns the cache for key, or nil if none exists.
func (t *InlineCacheTable) Get(key string) *InlineCache {
	return t.caches[key]
}

// Reset clears all caches in the table.
func (t *InlineCacheTable) Reset() {
	for _, ic := range t.caches {
		ic.Reset()
	}
}

// ICStats holds aggregate call-site cache statistics.
type ICStats struct {
	TotalCallSites  int     // Call sites with a cache
	Monomorphic     int     // Call sites in monomorphic state
	Polymorphic     int     // Call sites in polymorphic state
	Megamorphic     int     // Call sites in megamorphic state
	Empty           int     // Call sites with nothing cached
	TotalHits       uint64  // Total cache hits
	TotalMisses     uint64  // Total cache misses
	HitRate         float64 // Overall hit rate percentage
	MonomorphicRate float64 // Percentage of used call sites that are monomorphic
}

// ICStats gathers statistics over every cache in the table.
func (t *InlineCacheTable) ICStats() ICStats {
	var stats ICStats
	for _, ic := range t.caches {
		switch ic.State {
		case CacheMonomorphic:
			stats.Monomorphic++
		case CachePolymorphic:
			stats.Polymorphic++
		case CacheMegamorphic:
			stats.Megamorphic++
		case CacheEmpty:
			stats.Empty++
		}
		stats.TotalHits += ic.Hits
		stats.TotalMisses += ic.Misses
	}
	stats.TotalCallSites = len(t.caches)
	stats.HitRate = hitRate(stats.TotalHits, stats.TotalMisses)
	if used := stats.TotalCallSites - stats.Empty; used > 0 {
		stats.MonomorphicRate = float64(stats.Monomorphic) * 100 / float64(used)
	}
	return stats
}
