package cache

import (
	"encoding/json"
	"os"
	"time"
)

// metadataFile is the single aggregate index describing every on-disk entry.
const metadataFile = "metadata.json"

// EntryMeta holds the access statistics for one on-disk cache entry.
type EntryMeta struct {
	Key         string    `json:"key"`
	CreatedAt   time.Time `json:"createdAt"`
	Size        int64     `json:"size"`
	AccessCount int64     `json:"accessCount"`
	LastAccess  time.Time `json:"lastAccess"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// loadMetadata reads the aggregate index from disk. A missing file yields an
// empty index; a corrupt file is discarded wholesale and the cache starts
// empty, as new writes will rebuild it.
func loadMetadata(path string) (map[string]*EntryMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*EntryMeta), nil
		}
		return make(map[string]*EntryMeta), err
	}

	meta := make(map[string]*EntryMeta)
	if err := json.Unmarshal(data, &meta); err != nil {
		return make(map[string]*EntryMeta), err
	}
	return meta, nil
}

// persistMetadataLocked rewrites the aggregate index wholesale. Callers must
// hold the cache lock.
func (c *Cache) persistMetadataLocked() {
	data, err := json.Marshal(c.meta)
	if err != nil {
		c.log.WithError(err).Warn("cache: failed to encode metadata index")
		return
	}
	if err := os.WriteFile(c.metadataPath, data, 0o644); err != nil {
		c.log.WithError(err).Warn("cache: failed to persist metadata index")
	}
}
