// Package cache implements the two-tier geo-keyed weather cache: a bounded
// in-memory map in front of one-file-per-key disk storage, with TTL-based
// staleness and size-bounded LRU eviction.
package cache

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/and3rn3t/weather-app-sub004/internal/weather"
)

const (
	// DefaultMemoryEntries caps the number of bundles held in memory.
	DefaultMemoryEntries = 15

	// DefaultDiskBudget caps the cumulative payload bytes on disk.
	DefaultDiskBudget = 100 * 1024 * 1024

	// DefaultStaleAfter is the age past which an entry is still servable
	// but callers should refresh in the background.
	DefaultStaleAfter = 15 * time.Minute

	// DefaultExpireAfter is the age past which an entry must not be served.
	DefaultExpireAfter = 6 * time.Hour

	// diskBudgetLowWater is the fraction of the budget eviction shrinks to.
	// Evicting below the budget avoids re-triggering on every write.
	diskBudgetLowWater = 0.8

	// metaPersistEvery batches metadata rewrites on the read path: the
	// index is flushed after every Nth read hit, and unconditionally on
	// every write.
	metaPersistEvery = 10
)

// Config carries the cache's injected settings. Zero values fall back to the
// package defaults.
type Config struct {
	Dir           string
	MemoryEntries int
	DiskBudget    int64
	StaleAfter    time.Duration
	ExpireAfter   time.Duration
	Logger        *logrus.Logger
}

// memoryEntry is the memory-tier record for one key.
type memoryEntry struct {
	bundle    *weather.Bundle
	createdAt time.Time
	size      int64
}

// Cache is a two-tier store of weather bundles keyed by rounded coordinates.
// All methods are safe for concurrent use and complete fully before
// returning; callers schedule them off the interactive path.
type Cache struct {
	mu  sync.RWMutex
	cfg Config
	log *logrus.Logger

	metadataPath string
	memory       map[string]*memoryEntry
	meta         map[string]*EntryMeta

	// readHits counts read hits since startup; the metadata index is
	// flushed on every metaPersistEvery'th hit.
	readHits int

	// now is replaceable in tests.
	now func() time.Time
}

// New constructs the cache, creates its directory, loads the metadata index
// and runs one expiry sweep. It is intended to be built once per process and
// handed to callers by reference.
func New(cfg Config) (*Cache, error) {
	if cfg.MemoryEntries <= 0 {
		cfg.MemoryEntries = DefaultMemoryEntries
	}
	if cfg.DiskBudget <= 0 {
		cfg.DiskBudget = DefaultDiskBudget
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.ExpireAfter <= 0 {
		cfg.ExpireAfter = DefaultExpireAfter
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	c := &Cache{
		cfg:          cfg,
		log:          cfg.Logger,
		metadataPath: filepath.Join(cfg.Dir, metadataFile),
		memory:       make(map[string]*memoryEntry),
		now:          time.Now,
	}

	meta, err := loadMetadata(c.metadataPath)
	if err != nil {
		c.log.WithError(err).Warn("cache: metadata index unreadable, starting empty")
	}
	c.meta = meta

	c.mu.Lock()
	c.clearExpiredLocked()
	c.mu.Unlock()

	return c, nil
}

// ShouldRefresh reports whether the entry for (lat, lon) is stale, expired,
// or absent. Absent means the caller must fetch; stale means the cached data
// is still servable but a refresh is due. The check consults metadata only.
func (c *Cache) ShouldRefresh(lat, lon float64) bool {
	key := Key(lat, lon)

	c.mu.RLock()
	defer c.mu.RUnlock()

	me, ok := c.meta[key]
	if !ok {
		return true
	}
	return c.now().Sub(me.CreatedAt) >= c.cfg.StaleAfter
}

// Get returns the cached bundle for (lat, lon). Not-found and found are the
// only outcomes: expired entries are removed and read as a miss, and a
// corrupt disk payload is deleted along with its metadata so it cannot be
// served again.
func (c *Cache) Get(lat, lon float64) (*weather.Bundle, bool) {
	key := Key(lat, lon)

	c.mu.Lock()
	defer c.mu.Unlock()

	me, ok := c.meta[key]
	if !ok {
		// A payload file without metadata is invisible.
		delete(c.memory, key)
		return nil, false
	}
	if c.now().Sub(me.CreatedAt) >= c.cfg.ExpireAfter {
		c.removeEntryLocked(key)
		c.persistMetadataLocked()
		return nil, false
	}

	if e, ok := c.memory[key]; ok {
		c.touchLocked(me)
		return e.bundle, true
	}

	// Memory miss: fall through to the disk tier.
	data, err := os.ReadFile(c.payloadPath(key))
	if err != nil {
		return nil, false
	}

	var b weather.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		c.log.WithField("key", key).WithError(err).Warn("cache: corrupt payload, discarding")
		c.removeEntryLocked(key)
		c.persistMetadataLocked()
		return nil, false
	}

	// Opportunistically repopulate the memory tier while under its cap.
	if len(c.memory) < c.cfg.MemoryEntries {
		c.memory[key] = &memoryEntry{
			bundle:    &b,
			createdAt: me.CreatedAt,
			size:      me.Size,
		}
	}

	c.touchLocked(me)
	return &b, true
}

// Put stores the bundle under the key derived from (lat, lon). The memory
// tier always receives the entry; the disk write is best-effort and a
// failure there is logged, not surfaced. A disk-budget check runs after
// every write.
func (c *Cache) Put(b *weather.Bundle, lat, lon float64) {
	key := Key(lat, lon)

	data, err := json.Marshal(b)
	if err != nil {
		c.log.WithField("key", key).WithError(err).Warn("cache: failed to encode bundle")
		return
	}
	size := int64(len(data))

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.memory[key]; !exists && len(c.memory) >= c.cfg.MemoryEntries {
		c.evictOldestMemoryLocked()
	}

	now := c.now()
	c.memory[key] = &memoryEntry{bundle: b, createdAt: now, size: size}

	if err := os.WriteFile(c.payloadPath(key), data, 0o644); err != nil {
		// Memory stays the source of truth until the process restarts.
		c.log.WithField("key", key).WithError(err).Warn("cache: disk write failed")
	}

	c.meta[key] = &EntryMeta{
		Key:        key,
		CreatedAt:  now,
		Size:       size,
		LastAccess: now,
		Latitude:   roundCoord(lat),
		Longitude:  roundCoord(lon),
	}
	c.persistMetadataLocked()

	c.enforceDiskBudgetLocked()
}

// ClearExpired removes every entry older than the expiry threshold from both
// tiers. Callers invoke it opportunistically, e.g. on app foregrounding.
func (c *Cache) ClearExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearExpiredLocked()
}

// Stats reports resident item counts and sizes for diagnostics.
func (c *Cache) Stats() weather.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var memBytes, diskBytes int64
	for _, e := range c.memory {
		memBytes += e.size
	}
	for _, me := range c.meta {
		diskBytes += me.Size
	}

	return weather.CacheStats{
		MemoryItemCount: len(c.memory),
		DiskItemCount:   len(c.meta),
		MemorySizeMB:    float64(memBytes) / (1024 * 1024),
		DiskSizeMB:      float64(diskBytes) / (1024 * 1024),
	}
}

func (c *Cache) payloadPath(key string) string {
	return filepath.Join(c.cfg.Dir, key+".json")
}

// touchLocked records a read hit against the entry's access statistics and
// flushes the index on every metaPersistEvery'th hit.
func (c *Cache) touchLocked(me *EntryMeta) {
	me.AccessCount++
	me.LastAccess = c.now()

	c.readHits++
	if c.readHits%metaPersistEvery == 0 {
		c.persistMetadataLocked()
	}
}

// evictOldestMemoryLocked drops the least-recently-accessed memory entry.
// Ties are broken arbitrarily; an entry without metadata is the first
// candidate.
func (c *Cache) evictOldestMemoryLocked() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for key := range c.memory {
		me, ok := c.meta[key]
		if !ok {
			victim = key
			found = true
			break
		}
		if !found || me.LastAccess.Before(oldest) {
			victim = key
			oldest = me.LastAccess
			found = true
		}
	}
	if found {
		delete(c.memory, victim)
	}
}

// enforceDiskBudgetLocked checks the cumulative metadata sizes against the
// disk budget and, on overflow, deletes oldest-accessed entries until
// cumulative size falls to the low-water mark.
func (c *Cache) enforceDiskBudgetLocked() {
	var total int64
	for _, me := range c.meta {
		total += me.Size
	}
	if total <= c.cfg.DiskBudget {
		return
	}

	metas := make([]*EntryMeta, 0, len(c.meta))
	for _, me := range c.meta {
		metas = append(metas, me)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].LastAccess.Before(metas[j].LastAccess)
	})

	target := int64(float64(c.cfg.DiskBudget) * diskBudgetLowWater)
	removed := 0
	for _, me := range metas {
		if total <= target {
			break
		}
		total -= me.Size
		c.removeEntryLocked(me.Key)
		removed++
	}

	c.log.WithFields(logrus.Fields{
		"removed":        removed,
		"remainingBytes": total,
	}).Info("cache: disk budget eviction")
	c.persistMetadataLocked()
}

// clearExpiredLocked deletes every entry whose age exceeds the expiry
// threshold, measured from creation time.
func (c *Cache) clearExpiredLocked() {
	now := c.now()
	removed := 0
	for key, me := range c.meta {
		if now.Sub(me.CreatedAt) >= c.cfg.ExpireAfter {
			c.removeEntryLocked(key)
			removed++
		}
	}
	if removed > 0 {
		c.log.WithField("removed", removed).Info("cache: expired entries cleared")
		c.persistMetadataLocked()
	}
}

// removeEntryLocked destroys one entry across the memory tier, the disk tier
// and the metadata index. Callers persist the index afterwards.
func (c *Cache) removeEntryLocked(key string) {
	delete(c.memory, key)
	delete(c.meta, key)
	if err := os.Remove(c.payloadPath(key)); err != nil && !os.IsNotExist(err) {
		c.log.WithField("key", key).WithError(err).Warn("cache: failed to remove payload file")
	}
}

func roundCoord(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
