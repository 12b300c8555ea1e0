package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/audible-weather/internal/narration"
	"github.com/i474232898/audible-weather/internal/store"
	"github.com/i474232898/audible-weather/internal/weather"
)

var validate = validator.New()

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Narrations is the subset of narration.Service the handlers need.
type Narrations interface {
	CurrentAudio(ctx context.Context, coords weather.GeoCoordinates, w io.Writer) (narration.Record, error)
	SpeakCurrent(ctx context.Context, coords weather.GeoCoordinates) (narration.Record, error)
	SpeakForecast(ctx context.Context, coords weather.GeoCoordinates) (narration.Record, error)
	Get(id string) (narration.Record, error)
	Recent(limit int) ([]narration.Record, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. contentType is
// the MIME type of the synthesized audio.
func RegisterRoutes(app *fiber.App, service Narrations, contentType string) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current/audio", func(c *fiber.Ctx) error {
		coords, err := parseCoordinatesQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var audio bytes.Buffer
		rec, err := service.CurrentAudio(c.UserContext(), coords, &audio)
		if err != nil {
			return narrationFailed(err)
		}

		c.Set(fiber.HeaderContentType, contentType)
		c.Set("X-Narration-Id", rec.ID)
		return c.Send(audio.Bytes())
	})

	v1.Post("/weather/current/speak", func(c *fiber.Ctx) error {
		coords, err := parseCoordinatesQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := service.SpeakCurrent(c.UserContext(), coords)
		if err != nil {
			return narrationFailed(err)
		}
		return c.JSON(rec)
	})

	v1.Post("/weather/forecast/speak", func(c *fiber.Ctx) error {
		coords, err := parseCoordinatesQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := service.SpeakForecast(c.UserContext(), coords)
		if err != nil {
			return narrationFailed(err)
		}
		return c.JSON(rec)
	})

	v1.Get("/narrations", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", defaultHistoryLimit)
		if limit <= 0 || limit > maxHistoryLimit {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
		}

		records, err := service.Recent(limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch narration history")
		}
		if records == nil {
			records = []narration.Record{}
		}
		return c.JSON(fiber.Map{
			"narrations": records,
		})
	})

	v1.Get("/narrations/:id", func(c *fiber.Ctx) error {
		rec, err := service.Get(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no narration with requested id")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch narration")
		}
		return c.JSON(rec)
	})
}

// narrationFailed maps a collaborator failure onto the HTTP error returned to
// the client. Upstream errors can carry request URLs with credentials, so only
// the narrator's log sees the detail.
func narrationFailed(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fiber.NewError(fiber.StatusGatewayTimeout, "narration did not complete in time")
	}
	return fiber.NewError(fiber.StatusBadGateway, "failed to narrate weather")
}

// coordinatesQuery holds query parameters for identifying a point.
type coordinatesQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func (q coordinatesQuery) toCoordinates() weather.GeoCoordinates {
	return weather.GeoCoordinates{
		Latitude:  q.Lat,
		Longitude: q.Lon,
	}
}

func parseCoordinatesQuery(c *fiber.Ctx) (weather.GeoCoordinates, error) {
	var q coordinatesQuery

	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return weather.GeoCoordinates{}, errors.New("lat and lon query parameters are required")
	}

	var err error
	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return weather.GeoCoordinates{}, errors.New("lat must be a number")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return weather.GeoCoordinates{}, errors.New("lon must be a number")
	}

	if err := validate.Struct(q); err != nil {
		return weather.GeoCoordinates{}, err
	}

	return q.toCoordinates(), nil
}
