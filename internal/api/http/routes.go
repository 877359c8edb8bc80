package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/and3rn3t/weather-app-sub004/internal/geocode"
	"github.com/and3rn3t/weather-app-sub004/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, resolver geocode.Resolver) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		bundle, err := service.GetWeather(c.Context(), q.Lat, q.Lon)
		if err != nil {
			if errors.Is(err, weather.ErrNoData) {
				return fiber.NewError(fiber.StatusBadGateway, "no weather data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(bundle)
	})

	v1.Get("/weather/radar", func(c *fiber.Ctx) error {
		idx, err := service.RadarIndex(c.Context())
		if err != nil {
			if errors.Is(err, weather.ErrNoData) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "radar data is not available")
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch radar index")
		}

		return c.JSON(idx)
	})

	v1.Get("/geocode", func(c *fiber.Ctx) error {
		var q placeQuery
		q.City = c.Query("city")
		q.Country = c.Query("country")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		coords, err := resolver.Resolve(q.City, q.Country)
		if err != nil {
			if errors.Is(err, geocode.ErrUnavailable) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "geocoding is not configured")
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to resolve location")
		}

		return c.JSON(coords)
	})

	v1.Get("/cache/stats", func(c *fiber.Ctx) error {
		return c.JSON(service.CacheStats())
	})

	v1.Post("/cache/expired", func(c *fiber.Ctx) error {
		service.ClearExpired()
		return c.JSON(fiber.Map{
			"status": "ok",
			"stats":  service.CacheStats(),
		})
	})
}

// coordQuery holds the coordinate query parameters shared by weather routes.
type coordQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func parseCoordQuery(c *fiber.Ctx) (coordQuery, error) {
	var q coordQuery

	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return q, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return q, errors.New("lat must be a decimal degree value")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return q, errors.New("lon must be a decimal degree value")
	}

	q.Lat = lat
	q.Lon = lon

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// placeQuery holds query parameters for the geocoding endpoint.
type placeQuery struct {
	City    string `validate:"required"`
	Country string `validate:"required"`
}
