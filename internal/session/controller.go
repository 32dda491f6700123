package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-quicklook/internal/weather"
)

// ErrSuperseded is returned when a request finished after a newer one had
// started; its result is discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// lastData is the most recent successful fetch, kept so the unit toggle can
// re-render without going back to the network.
type lastData struct {
	forecast *weather.Forecast
	place    weather.Place
}

// Controller drives one session: it runs user actions through the
// resolve, fetch and build pipeline and owns the resulting display state.
// It is safe for concurrent use. Every network action takes a generation
// number and only the latest generation may write the display.
type Controller struct {
	resolver   weather.Resolver
	forecaster weather.Forecaster
	locator    weather.Locator
	log        *zap.SugaredLogger

	mu        sync.Mutex
	display   Display
	unit      weather.Unit
	last      *lastData
	gen       uint64
	seq       uint64
	listeners []func(Display)

	notifyMu  sync.Mutex
	delivered uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLocator enables the geolocation action. Without it Locate reports
// weather.ErrCapabilityUnavailable.
func WithLocator(l weather.Locator) Option {
	return func(c *Controller) { c.locator = l }
}

// WithUnit sets the initial unit preference.
func WithUnit(u weather.Unit) Option {
	return func(c *Controller) { c.unit = u }
}

// WithListener registers a callback invoked after display changes, in the
// order the changes were made. A change overtaken by a later one before it
// could be delivered is skipped. Callbacks run on the goroutine of the action
// that caused the change, one at a time, and must not call back into the
// Controller's actions.
func WithListener(fn func(Display)) Option {
	return func(c *Controller) { c.listeners = append(c.listeners, fn) }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Controller) { c.log = log }
}

// New creates a Controller in the idle state.
func New(resolver weather.Resolver, forecaster weather.Forecaster, opts ...Option) *Controller {
	c := &Controller{
		resolver:   resolver,
		forecaster: forecaster,
		unit:       weather.Celsius,
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.display = Display{State: StateIdle, Unit: c.unit}
	return c
}

// Display returns the current display state.
func (c *Controller) Display() Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// Unit returns the unit preference.
func (c *Controller) Unit() weather.Unit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unit
}

// LastPlace returns the place of the last successful fetch.
func (c *Controller) LastPlace() (weather.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return weather.Place{}, false
	}
	return c.last.place, true
}

// Search resolves a city name and shows its forecast. A blank query is ignored.
func (c *Controller) Search(ctx context.Context, query string) (Display, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return c.Display(), nil
	}

	gen := c.begin(MsgLoading)

	place, err := c.resolver.Resolve(ctx, q)
	if err != nil {
		return c.fail(gen, MsgCityNotFound, false, err)
	}

	f, err := c.forecaster.Forecast(ctx, place.Latitude, place.Longitude)
	if err != nil {
		return c.fail(gen, fmt.Sprintf(MsgForecastFailed, place.DisplayName), false, err)
	}

	return c.succeed(gen, f, place)
}

// Locate shows the forecast for the device position reported by the
// configured locator.
func (c *Controller) Locate(ctx context.Context) (Display, error) {
	return c.LocateWith(ctx, c.locator)
}

// LocateWith is Locate with an explicit position source. The reverse lookup
// and the forecast fetch run concurrently; if either fails nothing is shown.
func (c *Controller) LocateWith(ctx context.Context, locator weather.Locator) (Display, error) {
	if locator == nil {
		return c.Display(), weather.ErrCapabilityUnavailable
	}

	gen := c.begin(MsgLocating)

	coords, err := locator.Locate(ctx)
	if err != nil {
		if !errors.Is(err, weather.ErrPermissionDenied) {
			err = fmt.Errorf("%w: %w", weather.ErrPermissionDenied, err)
		}
		return c.fail(gen, MsgLocationDenied, true, err)
	}

	var (
		named *weather.Place
		f     *weather.Forecast
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.resolver.Reverse(gctx, coords.Latitude, coords.Longitude)
		named = p
		return err
	})
	g.Go(func() error {
		fc, err := c.forecaster.Forecast(gctx, coords.Latitude, coords.Longitude)
		f = fc
		return err
	})
	if err := g.Wait(); err != nil {
		return c.fail(gen, MsgLocationFailed, false, err)
	}

	place := weather.PlaceAt(coords)
	if named != nil {
		place.DisplayName = named.DisplayName
		place.Name, place.Admin1, place.Country = named.Name, named.Admin1, named.Country
	}
	return c.succeed(gen, f, place)
}

// SetUnit changes the unit preference and, when a forecast is cached,
// re-renders it. Without cached data the display is left as it is.
func (c *Controller) SetUnit(u weather.Unit) Display {
	c.mu.Lock()
	c.unit = u
	if c.last == nil {
		d := c.display
		c.mu.Unlock()
		return d
	}
	c.display = displayOf(weather.Build(c.last.forecast, c.last.place.DisplayName, u))
	c.seq++
	d, seq := c.display, c.seq
	c.mu.Unlock()

	c.notify(seq, d)
	return d
}

// Refresh re-fetches the forecast for the cached place without showing a
// loading state. It only acts while that forecast is on screen, and its
// result is dropped if another action starts meanwhile.
func (c *Controller) Refresh(ctx context.Context) (Display, error) {
	c.mu.Lock()
	if c.last == nil || c.display.State != StateSuccess {
		d := c.display
		c.mu.Unlock()
		return d, nil
	}
	gen, place := c.gen, c.last.place
	c.mu.Unlock()

	f, err := c.forecaster.Forecast(weather.BypassCache(ctx), place.Latitude, place.Longitude)
	if err != nil {
		c.log.Warnw("refresh failed", "place", place.DisplayName, "error", err)
		return c.Display(), err
	}
	return c.succeed(gen, f, place)
}

// begin starts a new generation and shows the loading placeholder. The
// outlook already on screen stays until the action completes.
func (c *Controller) begin(msg string) uint64 {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.display = Display{
		State:   StateLoading,
		Message: msg,
		Unit:    c.display.Unit,
		Days:    c.display.Days,
	}
	c.seq++
	d, seq := c.display, c.seq
	c.mu.Unlock()

	c.notify(seq, d)
	return gen
}

func (c *Controller) fail(gen uint64, msg string, keepDays bool, cause error) (Display, error) {
	c.mu.Lock()
	if gen != c.gen {
		d := c.display
		c.mu.Unlock()
		return d, fmt.Errorf("%w: %w", ErrSuperseded, cause)
	}
	next := Display{State: StateError, Message: msg, Unit: c.display.Unit}
	if keepDays {
		next.Days = c.display.Days
	}
	c.display = next
	c.seq++
	d, seq := c.display, c.seq
	c.mu.Unlock()

	c.log.Warnw("action failed", "message", msg, "error", cause)
	c.notify(seq, d)
	return d, cause
}

func (c *Controller) succeed(gen uint64, f *weather.Forecast, place weather.Place) (Display, error) {
	c.mu.Lock()
	if gen != c.gen {
		d := c.display
		c.mu.Unlock()
		c.log.Debugw("discarding superseded result", "place", place.DisplayName)
		return d, ErrSuperseded
	}
	c.last = &lastData{forecast: f, place: place}
	c.display = displayOf(weather.Build(f, place.DisplayName, c.unit))
	c.seq++
	d, seq := c.display, c.seq
	c.mu.Unlock()

	c.log.Infow("forecast shown", "place", place.DisplayName, "days", len(d.Days))
	c.notify(seq, d)
	return d, nil
}

// notify hands d to the listeners unless a later display change has already
// been delivered, so listeners observe changes in the order they were made.
func (c *Controller) notify(seq uint64, d Display) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if seq <= c.delivered {
		return
	}
	c.delivered = seq
	for _, fn := range c.listeners {
		fn(d)
	}
}
