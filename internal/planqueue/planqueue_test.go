package planqueue

import "testing"

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{PlanCacheEntries: 4, TileCacheSizeMB: 8})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestPlanCacheRoundTrip(t *testing.T) {
	m := testManager(t)
	key := PlanKey{ArrayID: "arr1", TileCoords: "[0 0]"}
	if _, ok := m.GetPlan(key); ok {
		t.Fatal("expected miss before any Set")
	}
	m.SetPlan(key, []byte{1, 2, 3})
	got, ok := m.GetPlan(key)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if len(got) != 3 || got[0] != 1 {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestPlanCacheEvictsLRUBeyondCapacity(t *testing.T) {
	m := testManager(t)
	for i := 0; i < 5; i++ {
		m.SetPlan(PlanKey{ArrayID: "arr1", TileCoords: string(rune('a' + i))}, []byte{byte(i)})
	}
	if _, ok := m.GetPlan(PlanKey{ArrayID: "arr1", TileCoords: "a"}); ok {
		t.Error("expected the oldest entry evicted once capacity (4) was exceeded")
	}
	if _, ok := m.GetPlan(PlanKey{ArrayID: "arr1", TileCoords: "e"}); !ok {
		t.Error("expected the most recent entry to survive")
	}
}

func TestTileCacheRoundTrip(t *testing.T) {
	m := testManager(t)
	key := TileKey("arr1", []int64{0, 0}, 0)
	if _, ok := m.GetTile(key); ok {
		t.Fatal("expected miss before any Set")
	}
	if err := m.SetTile(key, []byte{9, 9}); err != nil {
		t.Fatalf("SetTile: %v", err)
	}
	got, ok := m.GetTile(key)
	if !ok || len(got) != 2 {
		t.Errorf("got %v, ok=%v, want [9 9] true", got, ok)
	}
}

func TestStatsReflectsEntries(t *testing.T) {
	m := testManager(t)
	m.SetPlan(PlanKey{ArrayID: "arr1", TileCoords: "x"}, []byte{1})
	if err := m.SetTile("t1", []byte{1}); err != nil {
		t.Fatalf("SetTile: %v", err)
	}
	stats := m.Stats()
	if stats["plan_cache_len"] != 1 {
		t.Errorf("plan_cache_len = %d, want 1", stats["plan_cache_len"])
	}
	if stats["tile_cache_len"] != 1 {
		t.Errorf("tile_cache_len = %d, want 1", stats["tile_cache_len"])
	}
}
