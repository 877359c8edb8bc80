package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// TrackedLocation is a coordinate pair the scheduler keeps refreshed.
type TrackedLocation struct {
	Lat float64
	Lon float64
}

type AppConfig struct {
	Port string

	// FetchInterval controls how often the scheduler refreshes tracked locations.
	FetchInterval time.Duration

	// Locations to keep warm in the cache.
	Locations []TrackedLocation

	// Cache settings.
	CacheDir           string
	CacheMemoryEntries int
	CacheDiskBudget    int64
	CacheStaleAfter    time.Duration
	CacheExpireAfter   time.Duration

	// Outbound HTTP client timeout.
	HTTPTimeout time.Duration

	GeocoderAPIKey string

	// Logging.
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogCompress   bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	intervalStr := getenvDefault("FETCH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	cfg.CacheDir = getenvDefault("CACHE_DIR", "data/weather-cache")
	cfg.CacheMemoryEntries = getenvInt("CACHE_MEMORY_ENTRIES", 15)
	cfg.CacheDiskBudget = int64(getenvInt("CACHE_DISK_BUDGET_MB", 100)) * 1024 * 1024

	staleStr := getenvDefault("CACHE_STALE_AFTER", "15m")
	stale, err := time.ParseDuration(staleStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_STALE_AFTER: %w", err)
	}
	cfg.CacheStaleAfter = stale

	expireStr := getenvDefault("CACHE_EXPIRE_AFTER", "6h")
	expire, err := time.ParseDuration(expireStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_EXPIRE_AFTER: %w", err)
	}
	cfg.CacheExpireAfter = expire

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFile = os.Getenv("LOG_FILE")
	cfg.LogMaxSizeMB = getenvInt("LOG_MAX_SIZE_MB", 50)
	cfg.LogMaxBackups = getenvInt("LOG_MAX_BACKUPS", 3)
	cfg.LogCompress = getenvDefault("LOG_COMPRESS", "false") == "true"

	locs, err := loadTrackedLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// loadTrackedLocations parses WEATHER_LOCATIONS, a semicolon-separated list
// of "lat,lon" pairs, e.g. "37.7749,-122.4194;40.7128,-74.0060".
func loadTrackedLocations() ([]TrackedLocation, error) {
	raw := os.Getenv("WEATHER_LOCATIONS")
	if raw == "" {
		return nil, nil
	}

	var locs []TrackedLocation
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid WEATHER_LOCATIONS entry %q: want lat,lon", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", pair, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", pair, err)
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("coordinates out of range in %q", pair)
		}
		locs = append(locs, TrackedLocation{Lat: lat, Lon: lon})
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
