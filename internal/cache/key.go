package cache

import "fmt"

// Key derives the stable cache key for a coordinate pair. Coordinates are
// rounded to 4 decimal digits, so requests within roughly 11 meters of each
// other collapse onto one entry. That precision loss is the intended
// hit-rate tradeoff.
func Key(lat, lon float64) string {
	return fmt.Sprintf("weather_%.4f_%.4f", lat, lon)
}
