package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-quicklook/internal/session"
	"github.com/i474232898/weather-quicklook/internal/store"
	"github.com/i474232898/weather-quicklook/internal/weather"
)

var validate = validator.New()

// Deps are the collaborators the routes need.
type Deps struct {
	Sessions *store.MemoryStore
	// NewSession builds a controller for a new client.
	NewSession func() *session.Controller
	// Locator is used by /locate when the request carries no coordinates.
	// Nil means the server has no position source.
	Locator weather.Locator
	// RequestTimeout bounds the upstream calls of a single request.
	RequestTimeout time.Duration
}

type sessionResponse struct {
	ID      string          `json:"id"`
	Unit    weather.Unit    `json:"unit"`
	Display session.Display `json:"display"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Post("/sessions", func(c *fiber.Ctx) error {
		ctrl := deps.NewSession()
		id := deps.Sessions.Create(ctrl)
		return c.Status(fiber.StatusCreated).JSON(respond(id, ctrl, ctrl.Display()))
	})

	v1.Get("/sessions/:id", withSession(deps, func(c *fiber.Ctx, id string, ctrl *session.Controller) error {
		return c.JSON(respond(id, ctrl, ctrl.Display()))
	}))

	v1.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/sessions/:id/search", withSession(deps, func(c *fiber.Ctx, id string, ctrl *session.Controller) error {
		q := searchQuery{City: strings.TrimSpace(c.Query("city"))}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := requestContext(c, deps.RequestTimeout)
		defer cancel()

		d, err := ctrl.Search(ctx, q.City)
		return reply(c, id, ctrl, d, err)
	}))

	v1.Post("/sessions/:id/locate", withSession(deps, func(c *fiber.Ctx, id string, ctrl *session.Controller) error {
		q, err := parseLocateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		locator := deps.Locator
		if q.Given {
			locator = weather.StaticLocator{Latitude: q.Lat, Longitude: q.Lon}
		}

		ctx, cancel := requestContext(c, deps.RequestTimeout)
		defer cancel()

		d, err := ctrl.LocateWith(ctx, locator)
		return reply(c, id, ctrl, d, err)
	}))

	v1.Put("/sessions/:id/unit", withSession(deps, func(c *fiber.Ctx, id string, ctrl *session.Controller) error {
		q := unitQuery{Unit: strings.ToUpper(strings.TrimSpace(c.Query("unit")))}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		d := ctrl.SetUnit(weather.Unit(q.Unit))
		return c.JSON(respond(id, ctrl, d))
	}))
}

// searchQuery holds query parameters for the search endpoint.
type searchQuery struct {
	City string `validate:"required,max=200"`
}

// unitQuery holds query parameters for the unit endpoint.
type unitQuery struct {
	Unit string `validate:"required,oneof=C F"`
}

// locateQuery holds the optional device position for the locate endpoint.
type locateQuery struct {
	Given bool
	Lat   float64 `validate:"min=-90,max=90"`
	Lon   float64 `validate:"min=-180,max=180"`
}

func parseLocateQuery(c *fiber.Ctx) (locateQuery, error) {
	var q locateQuery

	rawLat, rawLon := c.Query("lat"), c.Query("lon")
	if rawLat == "" && rawLon == "" {
		return q, nil
	}
	if rawLat == "" || rawLon == "" {
		return q, errors.New("lat and lon must be given together")
	}

	var err error
	if q.Lat, err = strconv.ParseFloat(rawLat, 64); err != nil {
		return q, errors.New("invalid lat; expected decimal degrees")
	}
	if q.Lon, err = strconv.ParseFloat(rawLon, 64); err != nil {
		return q, errors.New("invalid lon; expected decimal degrees")
	}
	q.Given = true

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func withSession(deps Deps, h func(c *fiber.Ctx, id string, ctrl *session.Controller) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		ctrl, err := deps.Sessions.Get(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no session with that id")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load session")
		}
		return h(c, id, ctrl)
	}
}

// reply reports an action's outcome. Failures of the action itself are part
// of the display, so only a missing geolocation capability changes the status.
func reply(c *fiber.Ctx, id string, ctrl *session.Controller, d session.Display, err error) error {
	if errors.Is(err, weather.ErrCapabilityUnavailable) {
		return fiber.NewError(fiber.StatusNotImplemented, session.MsgGeoNotSupported)
	}
	return c.JSON(respond(id, ctrl, d))
}

func respond(id string, ctrl *session.Controller, d session.Display) sessionResponse {
	return sessionResponse{ID: id, Unit: ctrl.Unit(), Display: d}
}

func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), timeout)
}
