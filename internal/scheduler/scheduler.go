package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-quicklook/internal/session"
)

// Sessions lists the sessions to refresh, keyed by id, and drops expired ones.
type Sessions interface {
	All() map[string]*session.Controller
	Prune() int
}

// DefaultPruneInterval is how often expired sessions are dropped.
const DefaultPruneInterval = time.Minute

// Scheduler periodically refreshes the forecast shown in every session and
// drops sessions that have expired.
type Scheduler struct {
	scheduler     *gocron.Scheduler
	sessions      Sessions
	interval      time.Duration
	timeout       time.Duration
	pruneInterval time.Duration
	log           *zap.SugaredLogger
}

// New creates a new Scheduler.
func New(sessions Sessions, interval, timeout time.Duration, log *zap.SugaredLogger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:     s,
		sessions:      sessions,
		interval:      interval,
		timeout:       timeout,
		pruneInterval: DefaultPruneInterval,
		log:           log,
	}
}

// Start schedules the periodic jobs and starts the underlying scheduler.
// Pruning always runs; a non-positive interval disables refreshing.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.pruneInterval).WaitForSchedule().SingletonMode().Do(s.prune); err != nil {
		return err
	}

	if s.interval > 0 {
		if _, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.refreshAll); err != nil {
			return err
		}
		s.log.Infow("scheduler: refresh enabled", "interval", s.interval.String())
	} else {
		s.log.Infow("scheduler: refresh disabled")
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) prune() {
	if n := s.sessions.Prune(); n > 0 {
		s.log.Infow("scheduler: pruned expired sessions", "count", n)
	}
}

// refreshAll refreshes every session concurrently, each under its own
// timeout. A non-positive timeout means no deadline.
func (s *Scheduler) refreshAll() {
	all := s.sessions.All()
	s.log.Debugw("scheduler: running refresh job", "sessions", len(all))

	var wg sync.WaitGroup
	for id, c := range all {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := s.refreshContext()
			defer cancel()

			if _, err := c.Refresh(ctx); err != nil {
				s.log.Warnw("scheduler: refresh failed", "session", id, "error", err)
			}
		}()
	}
	wg.Wait()
}

func (s *Scheduler) refreshContext() (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.timeout)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
