package weather

import (
	"context"
)

// Provider abstracts a forecast data source (e.g. Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64) (*Bundle, error)
}

// RadarProvider abstracts a radar tile index source (e.g. RainViewer).
type RadarProvider interface {
	Name() string
	FetchIndex(ctx context.Context) (*RadarIndex, error)
}

// CacheStats describes the cache's resident state for diagnostics.
type CacheStats struct {
	MemoryItemCount int     `json:"memoryItemCount"`
	DiskItemCount   int     `json:"diskItemCount"`
	MemorySizeMB    float64 `json:"memorySizeMB"`
	DiskSizeMB      float64 `json:"diskSizeMB"`
}

// Cache is the contract the two-tier weather cache must satisfy. Callers are
// expected to invoke it off the interactive path; every method blocks on at
// most local file I/O and completes fully before returning.
type Cache interface {
	// ShouldRefresh reports whether the entry for the coordinate cell is
	// stale, expired, or absent. It consults metadata only.
	ShouldRefresh(lat, lon float64) bool

	// Get returns the cached bundle for the coordinate cell, or ok=false.
	// It never returns an error: corrupt entries are discarded and read as
	// a miss.
	Get(lat, lon float64) (*Bundle, bool)

	// Put stores the bundle under the coordinate cell's key. Disk
	// persistence is best-effort.
	Put(b *Bundle, lat, lon float64)

	// ClearExpired removes every entry older than the expiry threshold
	// from both tiers.
	ClearExpired()

	// Stats reports resident item counts and sizes.
	Stats() CacheStats
}
