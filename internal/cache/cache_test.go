package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/and3rn3t/weather-app-sub004/internal/weather"
)

func testBundle(lat, lon float64) *weather.Bundle {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &weather.Bundle{
		Latitude:  lat,
		Longitude: lon,
		FetchedAt: ts,
		Current: weather.Current{
			Timestamp:   ts,
			Temperature: 18.5,
			Humidity:    64,
			WindSpeed:   3.2,
			Pressure:    1013,
			WeatherCode: 2,
			Condition:   weather.ConditionCloudy,
			IsDay:       true,
		},
		Hourly: []weather.HourPoint{
			{Timestamp: ts, Temperature: 18.5, PrecipChance: 10, WeatherCode: 2, Condition: weather.ConditionCloudy},
			{Timestamp: ts.Add(time.Hour), Temperature: 19.0, PrecipChance: 20, WeatherCode: 3, Condition: weather.ConditionCloudy},
		},
	}
}

func newTestCache(t *testing.T, cfg Config) *Cache {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to construct cache: %v", err)
	}
	return c
}

// setClock pins the cache to a controllable clock and returns an advance
// function.
func setClock(c *Cache, start time.Time) func(d time.Duration) {
	current := start
	c.now = func() time.Time { return current }
	return func(d time.Duration) { current = current.Add(d) }
}

func TestKeyStability(t *testing.T) {
	k1 := Key(37.7749, -122.4194)
	k2 := Key(37.7749, -122.4194)
	if k1 != k2 {
		t.Fatalf("key not stable: %q vs %q", k1, k2)
	}

	// Differences beyond the 4th decimal digit collapse onto the same key.
	k3 := Key(37.77491234, -122.41941234)
	if k1 != k3 {
		t.Fatalf("expected sub-precision coordinates to share a key: %q vs %q", k1, k3)
	}

	k4 := Key(37.7750, -122.4194)
	if k1 == k4 {
		t.Fatalf("distinct cells must not share a key: %q", k4)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := newTestCache(t, Config{})

	want := testBundle(37.7749, -122.4194)
	c.Put(want, 37.7749, -122.4194)

	got, ok := c.Get(37.7749, -122.4194)
	if !ok {
		t.Fatal("expected a cache hit immediately after put")
	}
	if got.Current.Temperature != want.Current.Temperature || len(got.Hourly) != len(want.Hourly) {
		t.Fatalf("round-trip mismatch: got %+v", got)
	}
}

func TestCoordinateRoundingOverwrite(t *testing.T) {
	c := newTestCache(t, Config{})

	a := testBundle(37.7749, -122.4194)
	a.Current.Temperature = 10
	b := testBundle(37.77491234, -122.41941234)
	b.Current.Temperature = 20

	c.Put(a, 37.7749, -122.4194)
	// Rounds to the same cell, so this overwrites the first entry.
	c.Put(b, 37.77491234, -122.41941234)

	got, ok := c.Get(37.7749, -122.4194)
	if !ok {
		t.Fatal("expected a hit for the shared cell")
	}
	if got.Current.Temperature != 20 {
		t.Fatalf("expected the second put to win, got temperature %v", got.Current.Temperature)
	}
}

func TestStalenessMonotonicity(t *testing.T) {
	c := newTestCache(t, Config{})
	advance := setClock(c, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	if !c.ShouldRefresh(37.7749, -122.4194) {
		t.Fatal("absent entry must require a refresh")
	}

	c.Put(testBundle(37.7749, -122.4194), 37.7749, -122.4194)
	if c.ShouldRefresh(37.7749, -122.4194) {
		t.Fatal("fresh entry must not require a refresh")
	}

	advance(16 * time.Minute)
	if !c.ShouldRefresh(37.7749, -122.4194) {
		t.Fatal("entry past the stale threshold must require a refresh")
	}
	// Stale is still servable.
	if _, ok := c.Get(37.7749, -122.4194); !ok {
		t.Fatal("stale entry must still be servable")
	}

	advance(6 * time.Hour)
	if _, ok := c.Get(37.7749, -122.4194); ok {
		t.Fatal("expired entry must not be served")
	}
	if _, ok := c.meta[Key(37.7749, -122.4194)]; ok {
		t.Fatal("expired entry must be removed from the metadata index")
	}
	if _, err := os.Stat(c.payloadPath(Key(37.7749, -122.4194))); !os.IsNotExist(err) {
		t.Fatal("expired entry's payload file must be deleted")
	}
}

func TestMemoryCapacityBound(t *testing.T) {
	c := newTestCache(t, Config{MemoryEntries: 3})
	advance := setClock(c, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	coords := [][2]float64{{1, 1}, {2, 2}, {3, 3}}
	for _, p := range coords {
		c.Put(testBundle(p[0], p[1]), p[0], p[1])
		advance(time.Second)
	}

	// Touch everything except (2,2), making it the LRU victim.
	c.Get(1, 1)
	advance(time.Second)
	c.Get(3, 3)
	advance(time.Second)

	c.Put(testBundle(4, 4), 4, 4)

	if len(c.memory) > 3 {
		t.Fatalf("memory tier exceeded its cap: %d entries", len(c.memory))
	}
	if _, ok := c.memory[Key(2, 2)]; ok {
		t.Fatal("expected the least-recently-accessed entry to be evicted")
	}
	for _, p := range [][2]float64{{1, 1}, {3, 3}, {4, 4}} {
		if _, ok := c.memory[Key(p[0], p[1])]; !ok {
			t.Fatalf("expected %v to remain resident", p)
		}
	}

	// Eviction is memory-only: the entry still serves from disk.
	if _, ok := c.Get(2, 2); !ok {
		t.Fatal("memory-evicted entry must remain readable from disk")
	}
}

func TestDiskBudgetEnforcement(t *testing.T) {
	// Probe the serialized size of one entry; all test bundles share it.
	probe := newTestCache(t, Config{})
	probe.Put(testBundle(1, 1), 1, 1)
	var size int64
	for _, me := range probe.meta {
		size = me.Size
	}
	if size == 0 {
		t.Fatal("probe entry has no recorded size")
	}

	// Four entries overflow; eviction must shrink to 80% of budget,
	// which at these sizes means two surviving entries.
	c := newTestCache(t, Config{DiskBudget: 3*size + size/2})
	advance := setClock(c, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	for i, p := range [][2]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}} {
		c.Put(testBundle(p[0], p[1]), p[0], p[1])
		advance(time.Duration(i+1) * time.Second)
	}

	var total int64
	for _, me := range c.meta {
		total += me.Size
	}
	target := int64(float64(c.cfg.DiskBudget) * diskBudgetLowWater)
	if total > target {
		t.Fatalf("disk usage %d above the post-eviction target %d", total, target)
	}

	// Oldest-accessed entries go first.
	for _, p := range [][2]float64{{1, 1}, {2, 2}} {
		if _, ok := c.meta[Key(p[0], p[1])]; ok {
			t.Fatalf("expected oldest-accessed entry %v to be evicted", p)
		}
	}
	for _, p := range [][2]float64{{3, 3}, {4, 4}} {
		if _, ok := c.meta[Key(p[0], p[1])]; !ok {
			t.Fatalf("expected newest-accessed entry %v to survive", p)
		}
	}
}

func TestCorruptPayloadIsDiscarded(t *testing.T) {
	c := newTestCache(t, Config{})

	c.Put(testBundle(5, 5), 5, 5)
	key := Key(5, 5)

	// Force the read onto the disk tier and corrupt the payload.
	c.mu.Lock()
	delete(c.memory, key)
	c.mu.Unlock()
	if err := os.WriteFile(c.payloadPath(key), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to corrupt payload: %v", err)
	}

	if _, ok := c.Get(5, 5); ok {
		t.Fatal("corrupt payload must read as a miss")
	}
	if _, err := os.Stat(c.payloadPath(key)); !os.IsNotExist(err) {
		t.Fatal("corrupt payload file must be deleted")
	}
	if _, ok := c.meta[key]; ok {
		t.Fatal("corrupt entry's metadata must be removed")
	}
}

func TestColdStartServesFromDisk(t *testing.T) {
	dir := t.TempDir()

	c1 := newTestCache(t, Config{Dir: dir})
	c1.Put(testBundle(6, 6), 6, 6)

	// A fresh instance starts with an empty memory tier and loads lazily.
	c2 := newTestCache(t, Config{Dir: dir})
	if len(c2.memory) != 0 {
		t.Fatal("memory tier must start empty on cold start")
	}
	got, ok := c2.Get(6, 6)
	if !ok {
		t.Fatal("expected a disk hit after cold start")
	}
	if got.Latitude != 6 {
		t.Fatalf("unexpected bundle: %+v", got)
	}
	if _, ok := c2.memory[Key(6, 6)]; !ok {
		t.Fatal("disk hit must repopulate the memory tier while under cap")
	}
}

func TestStartupExpirySweep(t *testing.T) {
	dir := t.TempDir()

	c1 := newTestCache(t, Config{Dir: dir})
	c1.Put(testBundle(7, 7), 7, 7)
	c1.Put(testBundle(8, 8), 8, 8)

	// Rewind one entry's recorded creation time so it is expired on load.
	c1.mu.Lock()
	c1.meta[Key(7, 7)].CreatedAt = time.Now().Add(-7 * time.Hour)
	c1.persistMetadataLocked()
	c1.mu.Unlock()

	c2 := newTestCache(t, Config{Dir: dir})
	if _, ok := c2.meta[Key(7, 7)]; ok {
		t.Fatal("startup sweep must delete expired entries")
	}
	if _, err := os.Stat(c2.payloadPath(Key(7, 7))); !os.IsNotExist(err) {
		t.Fatal("startup sweep must delete expired payload files")
	}
	if _, ok := c2.meta[Key(8, 8)]; !ok {
		t.Fatal("startup sweep must keep unexpired entries")
	}
}

func TestCorruptMetadataStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, metadataFile), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("failed to seed corrupt metadata: %v", err)
	}

	c := newTestCache(t, Config{Dir: dir})
	if len(c.meta) != 0 {
		t.Fatal("corrupt metadata index must be discarded wholesale")
	}

	// New writes rebuild the index.
	c.Put(testBundle(8, 8), 8, 8)
	if _, ok := c.Get(8, 8); !ok {
		t.Fatal("cache must keep working after discarding corrupt metadata")
	}
}

func TestStats(t *testing.T) {
	c := newTestCache(t, Config{})

	c.Put(testBundle(1, 1), 1, 1)
	c.Put(testBundle(2, 2), 2, 2)

	s := c.Stats()
	if s.MemoryItemCount != 2 || s.DiskItemCount != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.MemorySizeMB <= 0 || s.DiskSizeMB <= 0 {
		t.Fatalf("expected non-zero sizes: %+v", s)
	}
}
