package weather_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and3rn3t/weather-app-sub004/internal/cache"
	"github.com/and3rn3t/weather-app-sub004/internal/weather"
)

type stubProvider struct {
	calls  int
	bundle *weather.Bundle
	err    error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(ctx context.Context, lat, lon float64) (*weather.Bundle, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	b := *p.bundle
	b.Latitude = lat
	b.Longitude = lon
	return &b, nil
}

type stubRadar struct {
	calls int
	err   error
}

func (r *stubRadar) Name() string { return "stub-radar" }

func (r *stubRadar) FetchIndex(ctx context.Context) (*weather.RadarIndex, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &weather.RadarIndex{
		Host:      "https://tilecache.example.com",
		Frames:    []weather.RadarFrame{{Time: time.Now().UTC(), Path: "/v2/radar/1"}},
		FetchedAt: time.Now().UTC(),
	}, nil
}

// stubCache gives tests direct control over staleness decisions.
type stubCache struct {
	refresh bool
	bundle  *weather.Bundle
	puts    int
}

func (c *stubCache) ShouldRefresh(lat, lon float64) bool { return c.refresh }

func (c *stubCache) Get(lat, lon float64) (*weather.Bundle, bool) {
	if c.bundle == nil {
		return nil, false
	}
	return c.bundle, true
}

func (c *stubCache) Put(b *weather.Bundle, lat, lon float64) {
	c.puts++
	c.bundle = b
}

func (c *stubCache) ClearExpired() {}

func (c *stubCache) Stats() weather.CacheStats { return weather.CacheStats{} }

func testBundle() *weather.Bundle {
	ts := time.Now().UTC()
	return &weather.Bundle{
		FetchedAt: ts,
		Current: weather.Current{
			Timestamp:   ts,
			Temperature: 21.0,
			Condition:   weather.ConditionClear,
		},
	}
}

func TestGetWeatherFetchesThroughCache(t *testing.T) {
	c, err := cache.New(cache.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to construct cache: %v", err)
	}
	prov := &stubProvider{bundle: testBundle()}
	svc := weather.NewService(c, prov, nil, nil)

	ctx := context.Background()

	if _, err := svc.GetWeather(ctx, 37.7749, -122.4194); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prov.calls != 1 {
		t.Fatalf("expected one provider call, got %d", prov.calls)
	}

	// A fresh entry serves from cache without touching the provider.
	if _, err := svc.GetWeather(ctx, 37.7749, -122.4194); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prov.calls != 1 {
		t.Fatalf("expected cached serve, provider called %d times", prov.calls)
	}
}

func TestGetWeatherFallsBackToStaleCache(t *testing.T) {
	cached := testBundle()
	c := &stubCache{refresh: true, bundle: cached}
	prov := &stubProvider{err: errors.New("network down")}
	svc := weather.NewService(c, prov, nil, nil)

	got, err := svc.GetWeather(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if got != cached {
		t.Fatal("expected the cached bundle to be served")
	}
}

func TestGetWeatherErrorsWithoutFallback(t *testing.T) {
	c := &stubCache{refresh: true}
	prov := &stubProvider{err: errors.New("network down")}
	svc := weather.NewService(c, prov, nil, nil)

	_, err := svc.GetWeather(context.Background(), 1, 2)
	if !errors.Is(err, weather.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestRefreshSkipsFreshEntries(t *testing.T) {
	c := &stubCache{refresh: false}
	prov := &stubProvider{bundle: testBundle()}
	svc := weather.NewService(c, prov, nil, nil)

	if err := svc.Refresh(context.Background(), 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prov.calls != 0 {
		t.Fatal("refresh must not fetch while the entry is fresh")
	}

	c.refresh = true
	if err := svc.Refresh(context.Background(), 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prov.calls != 1 || c.puts != 1 {
		t.Fatalf("expected one fetch and one put, got %d/%d", prov.calls, c.puts)
	}
}

func TestRadarIndexIsMemoized(t *testing.T) {
	radar := &stubRadar{}
	svc := weather.NewService(&stubCache{}, &stubProvider{bundle: testBundle()}, radar, nil)

	ctx := context.Background()
	if _, err := svc.RadarIndex(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RadarIndex(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if radar.calls != 1 {
		t.Fatalf("expected the index to be reused, got %d fetches", radar.calls)
	}
}
