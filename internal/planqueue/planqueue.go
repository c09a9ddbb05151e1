// Package planqueue caches the two things a read query recomputes
// most: merged per-tile cell ranges (keyed by array and tile
// coordinates, bounded by entry count via an LRU) and encoded
// attribute-tile result bytes (bounded by total size via a sharded
// byte-oriented cache), per SPEC_FULL.md's plan-cache component.
// Adapted from the teacher's cache.Manager: same split between a
// hashicorp/golang-lru instance for small structured entries and a
// bigcache instance for size-bounded byte blobs, repurposed from
// tile/query caching to merged-plan/encoded-tile caching.
package planqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config controls cache sizing (SPEC_FULL.md's CacheConfig).
type Config struct {
	PlanCacheEntries int
	TileCacheSizeMB  int
	TileTTL          time.Duration
}

// PlanKey identifies one array's merged tile plan.
type PlanKey struct {
	ArrayID    string
	TileCoords string // pre-formatted, e.g. fmt.Sprint(coords)
}

// Manager holds both cache tiers.
type Manager struct {
	plans *lru.Cache[PlanKey, []byte]
	tiles *bigcache.BigCache
}

// NewManager constructs both cache tiers from cfg.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TileTTL == 0 {
		cfg.TileTTL = 10 * time.Minute
	}
	planCache, err := lru.New[PlanKey, []byte](cfg.PlanCacheEntries)
	if err != nil {
		return nil, fmt.Errorf("planqueue: create plan cache: %w", err)
	}

	tileCache, err := bigcache.New(context.Background(), bigcache.Config{
		Shards:             1024,
		LifeWindow:         cfg.TileTTL,
		CleanWindow:        cfg.TileTTL / 2,
		MaxEntriesInWindow: 100000,
		MaxEntrySize:       1024 * 1024,
		HardMaxCacheSize:   cfg.TileCacheSizeMB,
	})
	if err != nil {
		return nil, fmt.Errorf("planqueue: create tile cache: %w", err)
	}

	return &Manager{plans: planCache, tiles: tileCache}, nil
}

// GetPlan retrieves a cached encoded merged-plan blob for key.
func (m *Manager) GetPlan(key PlanKey) ([]byte, bool) {
	return m.plans.Get(key)
}

// SetPlan stores an encoded merged-plan blob for key, evicting the
// least-recently-used entry once PlanCacheEntries is exceeded.
func (m *Manager) SetPlan(key PlanKey, encoded []byte) {
	m.plans.Add(key, encoded)
}

// GetTile retrieves a cached encoded attribute-tile result.
func (m *Manager) GetTile(key string) ([]byte, bool) {
	data, err := m.tiles.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetTile stores an encoded attribute-tile result.
func (m *Manager) SetTile(key string, data []byte) error {
	return m.tiles.Set(key, data)
}

// TileKey derives a cache key for one attribute's rendering of one
// tile of one array.
func TileKey(arrayID string, tileCoords []int64, attr int) string {
	return fmt.Sprintf("%s:%v:%d", arrayID, tileCoords, attr)
}

// Stats reports current occupancy of both tiers.
func (m *Manager) Stats() map[string]int {
	return map[string]int{
		"plan_cache_len": m.plans.Len(),
		"tile_cache_len": m.tiles.Len(),
	}
}

// Close releases the tile cache's background cleanup goroutine.
func (m *Manager) Close() error {
	return m.tiles.Close()
}
