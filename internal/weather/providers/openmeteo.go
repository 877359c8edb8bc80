package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/and3rn3t/weather-app-sub004/internal/weather"
)

// openMeteoTimeLayout is the minute-resolution format Open-Meteo uses for
// current and hourly timestamps when timezone=UTC is requested.
const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// Open-Meteo does not require an API key.
type OpenMeteoProvider struct {
	name         string
	baseURL      string
	forecastDays int
	httpCfg      HTTPClientConfig
	circuit      *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:         "openmeteo",
		baseURL:      "https://api.open-meteo.com/v1/forecast",
		forecastDays: 7,
		httpCfg:      newHTTPConfig(client),
		circuit:      newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Fetch retrieves current conditions plus the hourly and daily forecast for
// the given coordinates in one call and normalizes them into a Bundle.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, lat, lon float64) (*weather.Bundle, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%.4f", lat))
		values.Set("longitude", fmt.Sprintf("%.4f", lon))
		values.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,is_day,precipitation,weather_code,surface_pressure,wind_speed_10m,wind_direction_10m")
		values.Set("hourly", "temperature_2m,precipitation_probability,weather_code")
		values.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max")
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")
		values.Set("forecast_days", fmt.Sprintf("%d", p.forecastDays))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			FeelsLike     float64 `json:"apparent_temperature"`
			IsDay         int     `json:"is_day"`
			Precipitation float64 `json:"precipitation"`
			WeatherCode   int     `json:"weather_code"`
			Pressure      float64 `json:"surface_pressure"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WindDirection float64 `json:"wind_direction_10m"`
		} `json:"current"`
		Hourly struct {
			Time         []string  `json:"time"`
			Temperature  []float64 `json:"temperature_2m"`
			PrecipChance []float64 `json:"precipitation_probability"`
			WeatherCode  []int     `json:"weather_code"`
		} `json:"hourly"`
		Daily struct {
			Time         []string  `json:"time"`
			WeatherCode  []int     `json:"weather_code"`
			TempMax      []float64 `json:"temperature_2m_max"`
			TempMin      []float64 `json:"temperature_2m_min"`
			PrecipChance []float64 `json:"precipitation_probability_max"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	ts, err := time.ParseInLocation(openMeteoTimeLayout, payload.Current.Time, time.UTC)
	if err != nil {
		ts = time.Now().UTC()
	}

	b := &weather.Bundle{
		Latitude:  lat,
		Longitude: lon,
		FetchedAt: time.Now().UTC(),
		Current: weather.Current{
			Timestamp:     ts,
			Temperature:   payload.Current.Temperature,
			FeelsLike:     payload.Current.FeelsLike,
			Humidity:      payload.Current.Humidity,
			WindSpeed:     payload.Current.WindSpeed,
			WindDirection: payload.Current.WindDirection,
			Pressure:      payload.Current.Pressure,
			PrecipMM:      payload.Current.Precipitation,
			WeatherCode:   payload.Current.WeatherCode,
			Condition:     mapOpenMeteoCondition(payload.Current.WeatherCode),
			IsDay:         payload.Current.IsDay == 1,
		},
	}

	for i, raw := range payload.Hourly.Time {
		hts, err := time.ParseInLocation(openMeteoTimeLayout, raw, time.UTC)
		if err != nil {
			continue
		}
		point := weather.HourPoint{Timestamp: hts}
		if i < len(payload.Hourly.Temperature) {
			point.Temperature = payload.Hourly.Temperature[i]
		}
		if i < len(payload.Hourly.PrecipChance) {
			point.PrecipChance = payload.Hourly.PrecipChance[i]
		}
		if i < len(payload.Hourly.WeatherCode) {
			point.WeatherCode = payload.Hourly.WeatherCode[i]
			point.Condition = mapOpenMeteoCondition(point.WeatherCode)
		}
		b.Hourly = append(b.Hourly, point)
	}

	for i, raw := range payload.Daily.Time {
		date, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			continue
		}
		point := weather.DayPoint{Date: date}
		if i < len(payload.Daily.TempMax) {
			point.TempMax = payload.Daily.TempMax[i]
		}
		if i < len(payload.Daily.TempMin) {
			point.TempMin = payload.Daily.TempMin[i]
		}
		if i < len(payload.Daily.PrecipChance) {
			point.PrecipChance = payload.Daily.PrecipChance[i]
		}
		if i < len(payload.Daily.WeatherCode) {
			point.WeatherCode = payload.Daily.WeatherCode[i]
			point.Condition = mapOpenMeteoCondition(point.WeatherCode)
		}
		b.Daily = append(b.Daily, point)
	}

	return b, nil
}

// mapOpenMeteoCondition maps WMO weather codes onto the normalized set.
func mapOpenMeteoCondition(code int) weather.Condition {
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionFog
	case code >= 51 && code <= 57:
		return weather.ConditionDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
