package weather

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/weather-quicklook/internal/common"
)

// Unit is the temperature display unit.
type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// ParseUnit accepts "c", "celsius", "f" or "fahrenheit" in any case.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "celsius":
		return Celsius, nil
	case "f", "fahrenheit":
		return Fahrenheit, nil
	}
	return "", fmt.Errorf("unknown temperature unit %q", s)
}

// CelsiusToFahrenheit converts a temperature.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FormatTemp renders a Celsius reading in the requested unit, rounded to a
// whole degree, e.g. "32°F".
func FormatTemp(c float64, u Unit) string {
	if u == Fahrenheit {
		return common.FormatRounded(CelsiusToFahrenheit(c)) + "°F"
	}
	return common.FormatRounded(c) + "°C"
}

const (
	isoDate      = "2006-01-02"
	providerTime = "2006-01-02T15:04"
)

// Weekday returns the abbreviated weekday ("Mon") of an ISO calendar date.
// The date is taken as a wall-clock date, so no timezone can shift it to a
// neighbouring day. Unparseable input is returned unchanged.
func Weekday(date string) string {
	d, err := time.Parse(isoDate, date)
	if err != nil {
		return date
	}
	return d.Weekday().String()[:3]
}

// FormatTimestamp renders a provider timestamp as a medium date and short
// time, e.g. "Oct 18, 2026, 2:00 PM". The provider already reports local
// time for the place, so the wall clock is kept as is.
func FormatTimestamp(ts string) string {
	t, err := time.Parse(providerTime, ts)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, ts); err != nil {
			return ts
		}
	}
	return t.Format("Jan 2, 2006, 3:04 PM")
}

// PlaceLabel joins the non-empty name parts with ", ", dropping exact
// duplicates and keeping first-occurrence order.
func PlaceLabel(parts ...string) string {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// CoordinateLabel is the fallback label for a position with no known name.
func CoordinateLabel(lat, lon float64) string {
	return fmt.Sprintf("%.2f, %.2f", lat, lon)
}
