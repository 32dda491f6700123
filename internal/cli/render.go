package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/i474232898/weather-quicklook/internal/session"
)

const idleHint = "No forecast yet. Try: search <city>"

// Render writes a display as plain text: the current-conditions block (or
// the placeholder message that replaces it) followed by the daily outlook.
func Render(w io.Writer, d session.Display) error {
	var b strings.Builder

	switch {
	case d.Current != nil:
		fmt.Fprintf(&b, "%s\n", d.Place)
		fmt.Fprintf(&b, "%s  %s  %s\n", d.Current.Icon, d.Current.Condition, d.Current.Temperature)
		fmt.Fprintf(&b, "Updated %s\n", d.Current.Updated)
	case d.Message != "":
		fmt.Fprintf(&b, "%s\n", d.Message)
	default:
		fmt.Fprintf(&b, "%s\n", idleHint)
	}

	if len(d.Days) > 0 {
		b.WriteString("\n")
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DAY\tDATE\tCONDITION\tMIN\tMAX\tPRECIP")
		for _, day := range d.Days {
			fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
				day.Weekday, day.Date, day.Icon, day.Condition, day.Min, day.Max, day.Precipitation)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Progress returns a controller listener that prints the loading
// placeholder of every action as it starts.
func Progress(w io.Writer) func(session.Display) {
	var mu sync.Mutex
	return func(d session.Display) {
		if d.State != session.StateLoading {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, d.Message)
	}
}

// Follow returns a controller listener that renders every finished display,
// separated by a blank line. Used when forecasts refresh in the background.
func Follow(w io.Writer) func(session.Display) {
	var mu sync.Mutex
	return func(d session.Display) {
		if d.State == session.StateLoading {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w)
		_ = Render(w, d)
	}
}
