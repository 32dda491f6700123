package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-quicklook/internal/session"
	"github.com/i474232898/weather-quicklook/internal/weather"
)

const helpText = `Commands:
  search <city>   show the forecast for a city
  locate          show the forecast for your location
  unit [c|f]      switch temperature unit (no argument toggles)
  show            print the current screen again
  help            print this help
  quit            leave
`

// REPL is the interactive terminal front end for one session.
type REPL struct {
	ctrl    *session.Controller
	out     io.Writer
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewREPL creates a REPL writing to out. A positive timeout bounds every
// network action.
func NewREPL(ctrl *session.Controller, out io.Writer, timeout time.Duration, log *zap.SugaredLogger) *REPL {
	return &REPL{
		ctrl:    ctrl,
		out:     out,
		timeout: timeout,
		log:     log,
	}
}

// Run reads commands from in until EOF, quit, or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprint(r.out, helpText)

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if quit := r.Exec(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// Exec runs a single command line and reports whether the user asked to quit.
func (r *REPL) Exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(r.out, helpText)
	case "show":
		r.render(r.ctrl.Display())
	case "search", "s":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: search <city>")
			return false
		}
		r.act(ctx, func(ctx context.Context) (session.Display, error) {
			return r.ctrl.Search(ctx, arg)
		})
	case "locate", "l":
		r.act(ctx, r.ctrl.Locate)
	case "unit", "u":
		r.unit(arg)
	default:
		fmt.Fprintf(r.out, "unknown command %q; type help\n", cmd)
	}
	return false
}

func (r *REPL) act(ctx context.Context, fn func(context.Context) (session.Display, error)) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	d, err := fn(ctx)
	switch {
	case errors.Is(err, weather.ErrCapabilityUnavailable):
		fmt.Fprintln(r.out, session.MsgGeoNotSupported)
		return
	case errors.Is(err, session.ErrSuperseded):
		return
	case err != nil:
		r.log.Debugw("action failed", "error", err)
	}
	r.render(d)
}

func (r *REPL) unit(arg string) {
	u := weather.Fahrenheit
	if arg == "" {
		if r.ctrl.Unit() == weather.Fahrenheit {
			u = weather.Celsius
		}
	} else {
		parsed, err := weather.ParseUnit(arg)
		if err != nil {
			fmt.Fprintln(r.out, "usage: unit c|f")
			return
		}
		u = parsed
	}

	d := r.ctrl.SetUnit(u)
	if d.State != session.StateSuccess {
		fmt.Fprintf(r.out, "Unit set to °%s.\n", u)
		return
	}
	r.render(d)
}

func (r *REPL) render(d session.Display) {
	if err := Render(r.out, d); err != nil {
		r.log.Warnw("render failed", "error", err)
	}
}
