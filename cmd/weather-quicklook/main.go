package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-quicklook/internal/api/http"
	"github.com/i474232898/weather-quicklook/internal/cli"
	"github.com/i474232898/weather-quicklook/internal/config"
	"github.com/i474232898/weather-quicklook/internal/scheduler"
	"github.com/i474232898/weather-quicklook/internal/session"
	"github.com/i474232898/weather-quicklook/internal/store"
	"github.com/i474232898/weather-quicklook/internal/weather"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command and returns the process exit code. All deferred
// cleanup has finished by the time it returns.
func run(args []string) int {
	fs := flag.NewFlagSet("weather-quicklook", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to a YAML config file (default ./config.yaml if present)")
		serve      = fs.Bool("serve", false, "run the HTTP API instead of the terminal front end")
		city       = fs.String("city", "", "print the forecast for a city and exit")
		locate     = fs.Bool("locate", false, "print the forecast for the device position and exit")
		watch      = fs.Duration("watch", 0, "with -city or -locate, keep refreshing at this interval until interrupted")
		unit       = fs.String("unit", "", "temperature unit, c or f (overrides config)")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	if *unit != "" {
		if cfg.Unit, err = weather.ParseUnit(*unit); err != nil {
			log.Printf("invalid -unit: %v", err)
			return 1
		}
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Printf("failed to build logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := buildPipeline(ctx, cfg, logger)
	defer p.Close()

	switch {
	case *serve:
		err = runServer(ctx, cfg, p, logger)
	case *city != "" || *locate:
		err = runOnce(ctx, cfg, p, *city, *watch, logger)
	default:
		err = runREPL(ctx, cfg, p, logger)
	}
	if err != nil {
		logger.Errorw("exiting", "error", err)
		return 1
	}
	return 0
}

// runServer serves the HTTP API until ctx is done.
func runServer(ctx context.Context, cfg *config.AppConfig, p *pipeline, log *zap.SugaredLogger) error {
	sessions := store.NewMemoryStore(cfg.MaxSessions, cfg.SessionMaxAge)

	// Scheduler that keeps shown forecasts fresh.
	sched := scheduler.New(sessions, cfg.RefreshInterval, cfg.RefreshTimeout, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(log)
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Sessions:       sessions,
		NewSession:     func() *session.Controller { return p.NewSession() },
		Locator:        p.locator,
		RequestTimeout: cfg.RequestTimeout,
	})

	go func() {
		log.Infow("http server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// runOnce prints the forecast for a city, or for the device position when
// city is empty. A positive watch interval keeps refreshing it.
func runOnce(ctx context.Context, cfg *config.AppConfig, p *pipeline, city string, watch time.Duration, log *zap.SugaredLogger) error {
	opts := []session.Option{session.WithListener(cli.Progress(os.Stderr))}
	if watch > 0 {
		opts = append(opts, session.WithListener(cli.Follow(os.Stdout)))
	}
	ctrl := p.NewSession(opts...)

	actx, cancel := actionContext(ctx, cfg.RequestTimeout)
	var d session.Display
	var err error
	if city != "" {
		d, err = ctrl.Search(actx, city)
	} else {
		d, err = ctrl.Locate(actx)
	}
	cancel()

	if errors.Is(err, weather.ErrCapabilityUnavailable) {
		fmt.Fprintln(os.Stderr, session.MsgGeoNotSupported)
		return err
	}
	if watch <= 0 {
		if rerr := cli.Render(os.Stdout, d); rerr != nil {
			return rerr
		}
		return err
	}
	if err != nil {
		return err
	}

	sessions := store.NewMemoryStore(1, 0)
	sessions.Create(ctrl)
	sched := scheduler.New(sessions, watch, cfg.RefreshTimeout, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	<-ctx.Done()
	return nil
}

// runREPL runs the interactive front end until quit, EOF or a signal.
func runREPL(ctx context.Context, cfg *config.AppConfig, p *pipeline, log *zap.SugaredLogger) error {
	ctrl := p.NewSession(session.WithListener(cli.Progress(os.Stdout)))
	repl := cli.NewREPL(ctrl, os.Stdout, cfg.RequestTimeout, log)

	// Reading stdin cannot be interrupted, so a signal abandons the reader.
	done := make(chan error, 1)
	go func() { done <- repl.Run(ctx, os.Stdin) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		fmt.Fprintln(os.Stdout)
		return nil
	}
}

func actionContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
