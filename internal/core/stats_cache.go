package core

import "sync"

// cacheDeps declares what a cached report was computed from, so a commit or
// catalog change can invalidate exactly the entries it can have affected.
// Nil key sets mean "sensitive to every key"; the global dashboard reports
// use nil sets, while a future month- or project-scoped report can narrow
// its sensitivity without touching the invalidation logic.
type cacheDeps struct {
	ledger    bool         // derived from committed-document history
	kind      DocumentKind // restrict ledger sensitivity to one kind; "" = any
	stock     bool         // derived from the stock index
	catalog   bool         // derived from catalog tables
	months    map[string]struct{}
	projects  map[int]struct{}
	materials map[int]struct{}
}

func (d cacheDeps) hitBy(impact CommitImpact) bool {
	if d.stock {
		if keyMiss(d.projects, impact.ProjectID) {
			return false
		}
		return intersectsMaterials(d.materials, impact.MaterialIDs)
	}
	if !d.ledger {
		return false
	}
	if d.kind != "" && d.kind != impact.Kind {
		return false
	}
	if d.months != nil {
		if _, ok := d.months[impact.Month]; !ok {
			return false
		}
	}
	if keyMiss(d.projects, impact.ProjectID) {
		return false
	}
	return intersectsMaterials(d.materials, impact.MaterialIDs)
}

func keyMiss(set map[int]struct{}, key int) bool {
	if set == nil {
		return false
	}
	_, ok := set[key]
	return !ok
}

func intersectsMaterials(set map[int]struct{}, ids []int) bool {
	if set == nil {
		return true
	}
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// statsCache memoizes report results. It replaces the ad-hoc module-level
// stat caches of the old dashboard with one object that has an explicit
// invalidation contract: a commit drops every entry whose declared facets
// it touches, a catalog change drops the catalog-derived entries. Reports
// served from here are therefore never stale past the last commit.
//
// A report is computed outside the lock, so a commit can land between the
// miss and the store. The epoch guards that window: get returns the epoch
// observed at miss time, every invalidation advances it, and put discards
// the write if the epoch has moved on.
type statsCache struct {
	mu      sync.Mutex
	epoch   uint64
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value any
	deps  cacheDeps
}

func newStatsCache() *statsCache {
	return &statsCache{entries: make(map[string]cacheEntry)}
}

func (c *statsCache) get(key string) (any, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, c.epoch, false
	}
	return e.value, c.epoch, true
}

// put stores the result unless an invalidation ran since the epoch was
// observed; a discarded write just means the next reader recomputes.
func (c *statsCache) put(key string, value any, deps cacheDeps, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.entries[key] = cacheEntry{value: value, deps: deps}
}

func (c *statsCache) invalidateCommit(impact CommitImpact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	for key, e := range c.entries {
		if e.deps.hitBy(impact) {
			delete(c.entries, key)
		}
	}
}

func (c *statsCache) invalidateCatalog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	for key, e := range c.entries {
		if e.deps.catalog {
			delete(c.entries, key)
		}
	}
}
