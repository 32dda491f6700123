package session

import "github.com/i474232898/weather-quicklook/internal/weather"

// State is the controller's display state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// User-facing messages.
const (
	MsgLoading         = "Loading…"
	MsgLocating        = "Getting your location…"
	MsgCityNotFound    = "Could not find that city. Try another search."
	MsgForecastFailed  = "Found %s but could not load its forecast. Try again."
	MsgLocationFailed  = "Failed to get weather for your location."
	MsgLocationDenied  = "Location access denied."
	MsgGeoNotSupported = "Geolocation is not supported."
)

// Display is what a front end shows. Message is the placeholder text that
// replaces the current-conditions block while loading or after an error;
// Current is nil whenever Message is set. Days is the outlook currently on
// screen, which some error paths leave in place.
type Display struct {
	State   State                `json:"state"`
	Message string               `json:"message,omitempty"`
	Place   string               `json:"place,omitempty"`
	Unit    weather.Unit         `json:"unit"`
	Current *weather.CurrentView `json:"current,omitempty"`
	Days    []weather.DayView    `json:"days,omitempty"`
}

func displayOf(vm weather.ViewModel) Display {
	cur := vm.Current
	return Display{
		State:   StateSuccess,
		Place:   vm.Place,
		Unit:    vm.Unit,
		Current: &cur,
		Days:    vm.Days,
	}
}
