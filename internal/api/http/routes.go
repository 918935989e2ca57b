package httpapi

import (
	"context"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-map/internal/catalog"
	"github.com/i474232898/weather-map/internal/render"
	"github.com/i474232898/weather-map/internal/weather"
)

var validate = validator.New()

// Visualizer is the session the routes drive.
type Visualizer interface {
	Update(ctx context.Context, label string) error
	Snapshot() render.Snapshot
}

// CatalogSource serves the raw catalog document.
type CatalogSource interface {
	Raw(ctx context.Context) ([]byte, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, session Visualizer, cities CatalogSource, page *Page) {
	app.Get("/", func(c *fiber.Ctx) error {
		body, err := page.Render()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render page")
		}
		c.Type("html", "utf-8")
		return c.Send(body)
	})

	app.Get("/cities.json", func(c *fiber.Ctx) error {
		data, err := cities.Raw(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "city catalog unavailable")
		}
		c.Type("json")
		return c.Send(data)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/markers", func(c *fiber.Ctx) error {
		return c.JSON(session.Snapshot())
	})

	v1.Post("/visualization", func(c *fiber.Ctx) error {
		var req visualizationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		err := session.Update(c.UserContext(), req.Condition)

		var batchErr *weather.BatchError
		switch {
		case err == nil:
		case errors.As(err, &batchErr):
			// Partial batch: the available cities were drawn.
			failed := make([]string, 0, len(batchErr.Failed))
			for name := range batchErr.Failed {
				failed = append(failed, name)
			}
			sort.Strings(failed)
			return c.JSON(fiber.Map{
				"visualization": session.Snapshot(),
				"failed":        failed,
			})
		case errors.Is(err, render.ErrUnknownCondition):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, render.ErrSuperseded):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case errors.Is(err, catalog.ErrCatalogUnavailable):
			return fiber.NewError(fiber.StatusServiceUnavailable, "city catalog unavailable")
		case errors.Is(err, weather.ErrWeatherFetchFailed):
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update visualization")
		}

		return c.JSON(fiber.Map{
			"visualization": session.Snapshot(),
		})
	})
}

// visualizationRequest selects the condition to draw. The label itself is
// checked by the session so that an unknown one still clears the map.
type visualizationRequest struct {
	Condition string `json:"condition" form:"condition" validate:"required"`
}
