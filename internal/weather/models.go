package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionFog     Condition = "fog"
	ConditionDrizzle Condition = "drizzle"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// Current is the normalized current-conditions block.
type Current struct {
	Timestamp     time.Time `json:"timestamp"` // always UTC
	Temperature   float64   `json:"temperatureC"`
	FeelsLike     float64   `json:"feelsLikeC"`
	Humidity      float64   `json:"humidityPercent"`
	WindSpeed     float64   `json:"windSpeedMs"`
	WindDirection float64   `json:"windDirectionDeg"`
	Pressure      float64   `json:"pressureHpa"`
	PrecipMM      float64   `json:"precipMm"`
	WeatherCode   int       `json:"weatherCode"`
	Condition     Condition `json:"condition"`
	IsDay         bool      `json:"isDay"`
}

// HourPoint is a single hour of forecast data.
type HourPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	Temperature  float64   `json:"temperatureC"`
	PrecipChance float64   `json:"precipChancePercent"`
	WeatherCode  int       `json:"weatherCode"`
	Condition    Condition `json:"condition"`
}

// DayPoint is a single day of forecast data.
type DayPoint struct {
	Date         time.Time `json:"date"`
	TempMax      float64   `json:"tempMaxC"`
	TempMin      float64   `json:"tempMinC"`
	PrecipChance float64   `json:"precipChancePercent"`
	WeatherCode  int       `json:"weatherCode"`
	Condition    Condition `json:"condition"`
}

// Bundle is the full normalized weather view for one location. It is the
// payload unit the cache serializes: one bundle per coordinate cell.
type Bundle struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	FetchedAt time.Time   `json:"fetchedAt"` // always UTC
	Current   Current     `json:"current"`
	Hourly    []HourPoint `json:"hourly,omitempty"`
	Daily     []DayPoint  `json:"daily,omitempty"`
}

// RadarFrame is one timestamped radar tile layer from the RainViewer index.
// Tile URLs are built as Host + Path + "/{size}/{z}/{x}/{y}/{color}/{options}.png".
type RadarFrame struct {
	Time    time.Time `json:"time"`
	Path    string    `json:"path"`
	Nowcast bool      `json:"nowcast"`
}

// RadarIndex is the set of radar frames currently published, past frames
// first, nowcast frames after, each group ordered by time ascending.
type RadarIndex struct {
	Host      string       `json:"host"`
	Frames    []RadarFrame `json:"frames"`
	FetchedAt time.Time    `json:"fetchedAt"`
}
