package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-quicklook/internal/weather"
)

type fakeResolver struct {
	places     map[string]weather.Place
	reverse    *weather.Place
	reverseErr error
}

func (f *fakeResolver) Resolve(_ context.Context, q string) (weather.Place, error) {
	p, ok := f.places[q]
	if !ok {
		return weather.Place{}, fmt.Errorf("%w: %q", weather.ErrNotFound, q)
	}
	return p, nil
}

func (f *fakeResolver) Reverse(context.Context, float64, float64) (*weather.Place, error) {
	return f.reverse, f.reverseErr
}

type fakeForecaster struct {
	mu    sync.Mutex
	temp  float64
	err   error
	calls int
	// bypassed records, per call, whether the context asked to skip caches.
	bypassed []bool
	// block, when set, holds a call until it receives a value.
	block chan struct{}
}

func (f *fakeForecaster) Forecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error) {
	f.mu.Lock()
	f.calls++
	f.bypassed = append(f.bypassed, weather.CacheBypassed(ctx))
	temp, err, block := f.temp, f.err, f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", weather.ErrFetch, err)
	}
	return &weather.Forecast{
		Latitude:       lat,
		Longitude:      lon,
		CurrentWeather: weather.CurrentWeather{Time: "2026-10-18T14:00", Temperature: temp, WeatherCode: 0},
		Daily: weather.DailySeries{
			Time:             []string{"2026-10-18", "2026-10-19", "2026-10-20"},
			WeatherCode:      []int{0, 61, 71},
			Temperature2mMax: []float64{temp + 5, temp + 4, temp + 3},
			Temperature2mMin: []float64{temp - 5, temp - 4, temp - 3},
			PrecipitationSum: []float64{0, 2.6, 1},
		},
	}, nil
}

func (f *fakeForecaster) set(temp float64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.temp, f.err = temp, err
}

type failingLocator struct{}

func (failingLocator) Locate(context.Context) (weather.Coordinates, error) {
	return weather.Coordinates{}, errors.New("user dismissed the prompt")
}

var paris = weather.NewPlace("Paris", "Île-de-France", "France", 48.85, 2.35)

func newFixture(opts ...Option) (*Controller, *fakeResolver, *fakeForecaster) {
	r := &fakeResolver{places: map[string]weather.Place{"Paris": paris}}
	f := &fakeForecaster{}
	return New(r, f, opts...), r, f
}

func TestNewIsIdle(t *testing.T) {
	c, _, _ := newFixture(WithUnit(weather.Fahrenheit))

	d := c.Display()
	assert.Equal(t, StateIdle, d.State)
	assert.Equal(t, weather.Fahrenheit, d.Unit)
	assert.Nil(t, d.Current)
	_, ok := c.LastPlace()
	assert.False(t, ok)
}

func TestSearchSuccess(t *testing.T) {
	var states []State
	c, _, _ := newFixture(WithListener(func(d Display) { states = append(states, d.State) }))

	d, err := c.Search(context.Background(), "  Paris ")
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, d.State)
	assert.Equal(t, "Paris, Île-de-France, France", d.Place)
	require.NotNil(t, d.Current)
	assert.Equal(t, "0°C", d.Current.Temperature)
	assert.Len(t, d.Days, 3)
	assert.Empty(t, d.Message)
	assert.Equal(t, []State{StateLoading, StateSuccess}, states)

	p, ok := c.LastPlace()
	require.True(t, ok)
	assert.Equal(t, paris, p)
}

func TestSearchBlankIsNoop(t *testing.T) {
	calls := 0
	c, _, f := newFixture(WithListener(func(Display) { calls++ }))

	d, err := c.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, d.State)
	assert.Zero(t, calls)
	assert.Zero(t, f.calls)
}

func TestSearchCityNotFound(t *testing.T) {
	c, _, f := newFixture()
	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)

	d, err := c.Search(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrNotFound)
	assert.Equal(t, StateError, d.State)
	assert.Equal(t, MsgCityNotFound, d.Message)
	assert.Nil(t, d.Current)
	assert.Empty(t, d.Days)
	assert.Equal(t, 1, f.calls)

	// The cache is untouched by failures.
	p, ok := c.LastPlace()
	require.True(t, ok)
	assert.Equal(t, paris.DisplayName, p.DisplayName)
}

func TestSearchForecastFailure(t *testing.T) {
	c, _, f := newFixture()
	f.set(0, errors.New("boom"))

	d, err := c.Search(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrFetch)
	assert.Equal(t, StateError, d.State)
	assert.Equal(t, "Found Paris, Île-de-France, France but could not load its forecast. Try again.", d.Message)
	assert.Empty(t, d.Days)

	_, ok := c.LastPlace()
	assert.False(t, ok)
}

func TestSetUnitRebuildsFromCache(t *testing.T) {
	c, _, f := newFixture()
	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)

	d := c.SetUnit(weather.Fahrenheit)
	assert.Equal(t, StateSuccess, d.State)
	assert.Equal(t, weather.Fahrenheit, d.Unit)
	assert.Equal(t, "32°F", d.Current.Temperature)
	assert.Equal(t, "41°F", d.Days[0].Max)
	assert.Equal(t, 1, f.calls)

	d = c.SetUnit(weather.Celsius)
	assert.Equal(t, "0°C", d.Current.Temperature)
	assert.Equal(t, 1, f.calls)
}

func TestSetUnitWithoutCacheOnlyStoresPreference(t *testing.T) {
	calls := 0
	c, _, _ := newFixture(WithListener(func(Display) { calls++ }))

	d := c.SetUnit(weather.Fahrenheit)
	assert.Equal(t, StateIdle, d.State)
	assert.Equal(t, weather.Fahrenheit, c.Unit())
	assert.Zero(t, calls)

	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "32°F", c.Display().Current.Temperature)
}

func TestSetUnitAfterErrorShowsCachedForecast(t *testing.T) {
	c, _, _ := newFixture()
	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "Atlantis")
	require.Error(t, err)

	d := c.SetUnit(weather.Fahrenheit)
	assert.Equal(t, StateSuccess, d.State)
	assert.Equal(t, paris.DisplayName, d.Place)
}

func TestLocateWithoutCapability(t *testing.T) {
	calls := 0
	c, _, f := newFixture(WithListener(func(Display) { calls++ }))

	d, err := c.Locate(context.Background())
	assert.ErrorIs(t, err, weather.ErrCapabilityUnavailable)
	assert.Equal(t, StateIdle, d.State)
	assert.Zero(t, calls)
	assert.Zero(t, f.calls)
}

func TestLocateNamedPlace(t *testing.T) {
	c, r, _ := newFixture(WithLocator(weather.StaticLocator{Latitude: 35.69, Longitude: 139.69}))
	tokyo := weather.NewPlace("Tokyo", "Tokyo", "Japan", 35.6895, 139.6917)
	r.reverse = &tokyo

	d, err := c.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, d.State)
	assert.Equal(t, "Tokyo, Japan", d.Place)

	// The device position is kept; only the label comes from the lookup.
	p, _ := c.LastPlace()
	assert.Equal(t, 35.69, p.Latitude)
	assert.Equal(t, 139.69, p.Longitude)
}

func TestLocateUnnamedPlaceUsesCoordinates(t *testing.T) {
	c, _, _ := newFixture(WithLocator(weather.StaticLocator{Latitude: 10.123, Longitude: -20.456}))

	d, err := c.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.12, -20.46", d.Place)
}

func TestLocateDenied(t *testing.T) {
	c, _, f := newFixture(WithLocator(failingLocator{}))
	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)

	d, err := c.Locate(context.Background())
	assert.ErrorIs(t, err, weather.ErrPermissionDenied)
	assert.Equal(t, StateError, d.State)
	assert.Equal(t, MsgLocationDenied, d.Message)
	assert.Nil(t, d.Current)
	assert.Len(t, d.Days, 3, "outlook stays on screen")
	assert.Equal(t, 1, f.calls)
}

func TestLocateIsAllOrNothing(t *testing.T) {
	t.Run("reverse fails", func(t *testing.T) {
		c, r, _ := newFixture(WithLocator(weather.StaticLocator{Latitude: 1, Longitude: 2}))
		r.reverseErr = errors.New("connection reset")

		d, err := c.Locate(context.Background())
		assert.Error(t, err)
		assert.Equal(t, StateError, d.State)
		assert.Equal(t, MsgLocationFailed, d.Message)
		assert.Empty(t, d.Days)
		_, ok := c.LastPlace()
		assert.False(t, ok)
	})

	t.Run("forecast fails", func(t *testing.T) {
		c, r, f := newFixture(WithLocator(weather.StaticLocator{Latitude: 1, Longitude: 2}))
		named := weather.NewPlace("Somewhere", "", "", 1, 2)
		r.reverse = &named
		f.set(0, errors.New("boom"))

		d, err := c.Locate(context.Background())
		assert.ErrorIs(t, err, weather.ErrFetch)
		assert.Equal(t, MsgLocationFailed, d.Message)
		assert.Empty(t, d.Place)
		_, ok := c.LastPlace()
		assert.False(t, ok)
	})
}

func TestLoadingKeepsOutlook(t *testing.T) {
	var loading []Display
	c, _, _ := newFixture(WithListener(func(d Display) {
		if d.State == StateLoading {
			loading = append(loading, d)
		}
	}))

	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "Paris")
	require.NoError(t, err)

	require.Len(t, loading, 2)
	assert.Empty(t, loading[0].Days)
	assert.Len(t, loading[1].Days, 3)
	assert.Nil(t, loading[1].Current)
	assert.Equal(t, MsgLoading, loading[1].Message)
}

func TestStaleResultIsDiscarded(t *testing.T) {
	c, r, f := newFixture()
	r.places["Tokyo"] = weather.NewPlace("Tokyo", "Tokyo", "Japan", 35.69, 139.69)

	release := make(chan struct{})
	f.mu.Lock()
	f.block = release
	f.mu.Unlock()

	type result struct {
		d   Display
		err error
	}
	slow := make(chan result, 1)
	go func() {
		d, err := c.Search(context.Background(), "Paris")
		slow <- result{d, err}
	}()

	// Wait until the slow search is parked in the forecaster.
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls == 1
	}, time.Second, time.Millisecond)

	f.mu.Lock()
	f.block = nil
	f.mu.Unlock()

	d, err := c.Search(context.Background(), "Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo, Japan", d.Place)

	close(release)
	res := <-slow
	assert.ErrorIs(t, res.err, ErrSuperseded)
	assert.Equal(t, "Tokyo, Japan", res.d.Place)
	assert.Equal(t, "Tokyo, Japan", c.Display().Place)

	p, _ := c.LastPlace()
	assert.Equal(t, "Tokyo, Japan", p.DisplayName)
}

func TestRefresh(t *testing.T) {
	c, _, f := newFixture()

	d, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, d.State)
	assert.Zero(t, f.calls)

	_, err = c.Search(context.Background(), "Paris")
	require.NoError(t, err)

	f.set(10, nil)
	d, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10°C", d.Current.Temperature)
	assert.Equal(t, 2, f.calls)
}

func TestRefreshLeavesErrorScreen(t *testing.T) {
	c, _, f := newFixture()
	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "Atlantis")
	require.Error(t, err)

	d, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateError, d.State)
	assert.Equal(t, 1, f.calls)
}

func TestRefreshFailureKeepsDisplay(t *testing.T) {
	c, _, f := newFixture()
	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)

	f.set(0, errors.New("boom"))
	d, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, weather.ErrFetch)
	assert.Equal(t, StateSuccess, d.State)
	assert.Equal(t, "0°C", d.Current.Temperature)
}

func TestRefreshBypassesCaches(t *testing.T) {
	c, _, f := newFixture()

	_, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []bool{false, true}, f.bypassed)
}

func TestNotifySkipsOvertakenChanges(t *testing.T) {
	var got []string
	c, _, _ := newFixture(WithListener(func(d Display) { got = append(got, d.Message) }))

	c.notify(2, Display{Message: "newer"})
	c.notify(1, Display{Message: "older"})
	c.notify(3, Display{Message: "newest"})

	assert.Equal(t, []string{"newer", "newest"}, got)
}

func TestListenersSeeChangesInOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []uint64
	)
	c, _, _ := newFixture()
	c.listeners = append(c.listeners, func(Display) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, c.delivered)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Search(context.Background(), "Paris")
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
	assert.Equal(t, StateSuccess, c.Display().State)
}
