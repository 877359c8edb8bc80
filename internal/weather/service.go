package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNoData is returned when neither the network nor the cache can serve a
// location.
var ErrNoData = errors.New("no weather data available")

// radarIndexTTL bounds how long a fetched radar frame index is reused.
// RainViewer rotates frames roughly every five minutes.
const radarIndexTTL = 5 * time.Minute

// Service orchestrates the provider and the cache: it serves from cache
// while entries are fresh, fetches and re-caches when they are stale or
// absent, and falls back to a still-servable cached bundle when the network
// is unavailable.
type Service struct {
	cache    Cache
	provider Provider
	radar    RadarProvider
	log      *logrus.Logger

	radarMu    sync.Mutex
	radarIndex *RadarIndex
}

// NewService creates a new Service.
func NewService(cache Cache, provider Provider, radar RadarProvider, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		cache:    cache,
		provider: provider,
		radar:    radar,
		log:      log,
	}
}

// GetWeather returns the weather bundle for the coordinates, consulting the
// cache first and hitting the provider only when the cache says a refresh is
// due. A failed fetch degrades to stale cached data when any is servable.
func (s *Service) GetWeather(ctx context.Context, lat, lon float64) (*Bundle, error) {
	if !s.cache.ShouldRefresh(lat, lon) {
		if b, ok := s.cache.Get(lat, lon); ok {
			return b, nil
		}
	}

	b, err := s.provider.Fetch(ctx, lat, lon)
	if err != nil {
		if cached, ok := s.cache.Get(lat, lon); ok {
			s.log.WithFields(logrus.Fields{
				"lat": lat,
				"lon": lon,
			}).WithError(err).Warn("fetch failed, serving stale cached data")
			return cached, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	s.cache.Put(b, lat, lon)
	return b, nil
}

// Refresh fetches and re-caches the location only if the cache says a
// refresh is due. It is the scheduler's entry point.
func (s *Service) Refresh(ctx context.Context, lat, lon float64) error {
	if !s.cache.ShouldRefresh(lat, lon) {
		return nil
	}

	b, err := s.provider.Fetch(ctx, lat, lon)
	if err != nil {
		return err
	}

	s.cache.Put(b, lat, lon)
	return nil
}

// RadarIndex returns the current radar frame catalogue, reusing the last
// fetched index while it is younger than radarIndexTTL.
func (s *Service) RadarIndex(ctx context.Context) (*RadarIndex, error) {
	if s.radar == nil {
		return nil, ErrNoData
	}

	s.radarMu.Lock()
	defer s.radarMu.Unlock()

	if s.radarIndex != nil && time.Since(s.radarIndex.FetchedAt) < radarIndexTTL {
		return s.radarIndex, nil
	}

	idx, err := s.radar.FetchIndex(ctx)
	if err != nil {
		if s.radarIndex != nil {
			s.log.WithError(err).Warn("radar index fetch failed, serving previous index")
			return s.radarIndex, nil
		}
		return nil, err
	}

	s.radarIndex = idx
	return idx, nil
}

// ClearExpired delegates to the cache. Callers invoke it opportunistically.
func (s *Service) ClearExpired() {
	s.cache.ClearExpired()
}

// CacheStats delegates to the cache.
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}
