package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/and3rn3t/weather-app-sub004/internal/weather"
)

// RainViewerProvider implements the weather.RadarProvider interface against
// the public RainViewer weather-maps index. The index is global, not
// per-location, and rotates roughly every five minutes.
type RainViewerProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewRainViewerProvider(client *http.Client) *RainViewerProvider {
	return &RainViewerProvider{
		name:    "rainviewer",
		baseURL: "https://api.rainviewer.com/public/weather-maps.json",
		httpCfg: newHTTPConfig(client),
		circuit: newCircuitBreaker("rainviewer"),
	}
}

func (p *RainViewerProvider) Name() string {
	return p.name
}

// FetchIndex retrieves the current radar frame catalogue: observed frames
// first, nowcast frames after, both ordered by time ascending.
func (p *RainViewerProvider) FetchIndex(ctx context.Context) (*weather.RadarIndex, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.baseURL, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Host  string `json:"host"`
		Radar struct {
			Past []struct {
				Time int64  `json:"time"`
				Path string `json:"path"`
			} `json:"past"`
			Nowcast []struct {
				Time int64  `json:"time"`
				Path string `json:"path"`
			} `json:"nowcast"`
		} `json:"radar"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	idx := &weather.RadarIndex{
		Host:      payload.Host,
		FetchedAt: time.Now().UTC(),
	}
	for _, f := range payload.Radar.Past {
		idx.Frames = append(idx.Frames, weather.RadarFrame{
			Time: time.Unix(f.Time, 0).UTC(),
			Path: f.Path,
		})
	}
	for _, f := range payload.Radar.Nowcast {
		idx.Frames = append(idx.Frames, weather.RadarFrame{
			Time:    time.Unix(f.Time, 0).UTC(),
			Path:    f.Path,
			Nowcast: true,
		})
	}

	return idx, nil
}
