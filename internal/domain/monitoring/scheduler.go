package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTickInterval is how often the scheduler scans for breached tasks.
const DefaultTickInterval = 30 * time.Second

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval overrides the scan interval.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler scans the task store on a fixed interval and flips breached
// tasks to overdue. It mutates task status only; it never writes to the
// journey log, so replaying a patient's events is unaffected by how often
// the scheduler ran.
type Scheduler struct {
	tasks    *TaskStore
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	ticking  sync.Mutex // single-flight guard, one tick at a time
	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(tasks *TaskStore, logger zerolog.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		tasks:    tasks,
		interval: DefaultTickInterval,
		now:      time.Now,
		logger:   logger,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the scan loop. It returns immediately; the loop runs until
// Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info().Dur("interval", s.interval).Msg("monitoring scheduler started")
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.Tick(s.now())
			}
		}
	}()
}

// Stop halts the loop and waits for any in-flight tick to finish. Safe to
// call more than once; after it returns the scheduler performs no further
// mutations.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	s.logger.Info().Msg("monitoring scheduler stopped")
}

// Tick scans every active task and flips the breached ones to overdue.
// Reports whether anything changed. Idempotent: a task already overdue is
// never flipped again, so repeat ticks after a breach are no-ops.
func (s *Scheduler) Tick(now time.Time) bool {
	s.ticking.Lock()
	defer s.ticking.Unlock()

	changed := false
	for _, t := range s.tasks.ListActive() {
		if !t.Breachable() {
			continue
		}
		if t.DueAt.IsZero() || now.Before(t.DueAt) {
			continue
		}
		if err := s.tasks.SetStatus(t.ID, StatusOverdue); err != nil {
			// Task completed between list and flip; nothing to do.
			s.logger.Debug().Str("task_id", t.ID.String()).Err(err).Msg("skipped overdue flip")
			continue
		}
		changed = true
		s.logger.Warn().
			Str("task_id", t.ID.String()).
			Str("patient_id", t.PatientID.String()).
			Str("kind", t.Kind).
			Time("due_at", t.DueAt).
			Msg("monitoring task overdue")
	}
	return changed
}
