package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Olyame/tg-meditation/internal/domain"
)

// EveryMinuteSpec fires at second zero of every minute.
const EveryMinuteSpec = "* * * * *"

// DailySpec returns the 5-field cron spec for c every day.
func DailySpec(c domain.Clock) string {
	return fmt.Sprintf("%d %d * * *", c.Minute, c.Hour)
}

// SpecFor returns the trigger spec that drives policy p.
func SpecFor(p Policy, def domain.Clock) string {
	if p == PolicyPerUser {
		return EveryMinuteSpec
	}
	return DailySpec(def)
}

// Scheduler triggers jobs on wall-clock specs in one fixed location.
type Scheduler struct {
	c   *cron.Cron
	loc *time.Location
	log *zap.Logger
	now func() time.Time
}

// New creates a stopped Scheduler evaluating specs in loc.
func New(loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{log: log.Sugar()}
	return &Scheduler{
		c: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		loc: loc,
		log: log,
		now: time.Now,
	}
}

// Location is the timezone every spec and every job's now use.
func (s *Scheduler) Location() *time.Location { return s.loc }

// Register adds job under spec. job receives the minute it was fired for,
// in Location. Runs of one job never overlap: a run that fires while the
// previous one is still going waits for it and keeps its own minute.
func (s *Scheduler) Register(spec, name string, job func(now time.Time)) error {
	var (
		mu      sync.Mutex
		pending []time.Time
	)
	serial := cron.DelayIfStillRunning(cronLogger{log: s.log.Sugar()})(cron.FuncJob(func() {
		mu.Lock()
		fired := pending[0]
		pending = pending[1:]
		mu.Unlock()
		job(fired)
	}))
	id, err := s.c.AddJob(spec, cron.FuncJob(func() {
		fired := s.now().In(s.loc).Truncate(time.Minute)
		mu.Lock()
		pending = append(pending, fired)
		mu.Unlock()
		serial.Run()
	}))
	if err != nil {
		return fmt.Errorf("register %s (%q): %w", name, spec, err)
	}
	s.log.Info("job registered",
		zap.String("job", name),
		zap.String("spec", spec),
		zap.String("tz", s.loc.String()),
		zap.Int("entry", int(id)),
	)
	return nil
}

// RegisterDaily runs job every day at c.
func (s *Scheduler) RegisterDaily(name string, c domain.Clock, job func(now time.Time)) error {
	return s.Register(DailySpec(c), name, job)
}

// RegisterEveryMinute runs job at the start of every minute.
func (s *Scheduler) RegisterEveryMinute(name string, job func(now time.Time)) error {
	return s.Register(EveryMinuteSpec, name, job)
}

// Next returns the earliest upcoming fire time, or zero if nothing is
// registered or the scheduler is not running.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.c.Entries() {
		if e.Next.IsZero() {
			continue
		}
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

func (s *Scheduler) Start() {
	s.c.Start()
	s.log.Info("scheduler started")
}

// Stop stops triggering and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.c.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// cronLogger routes cron's own logging into zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
