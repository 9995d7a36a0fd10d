// Package scheduler runs named jobs on 5-field cron expressions
// (minute hour day-of-month month day-of-week).
//
//	s := scheduler.New()
//	_ = s.Add("payroll", "0 * * * *", runner.Hourly)
//	s.Start(ctx)
//	defer s.Stop()
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"restaurant-backend/internal/logger"
	"restaurant-backend/internal/metrics"
)

type Task func(ctx context.Context) error

type entry struct {
	name    string
	expr    string
	task    Task
	lastRun time.Time
	running bool
	mu      sync.Mutex
}

type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	done    chan struct{}
}

func New() *Scheduler {
	return &Scheduler{}
}

// Add registers a task. Invalid expressions are rejected up front.
func (s *Scheduler) Add(name, expr string, task Task) error {
	if err := Validate(expr); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.mu.Lock()
	s.entries = append(s.entries, &entry{name: name, expr: expr, task: task})
	s.mu.Unlock()
	return nil
}

// Start ticks every second until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.RunDue(ctx, now)
			}
		}
	}()
	logger.Info("scheduler started", "jobs", s.Names())
}

// Stop ends the loop and waits for running jobs.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.wg.Wait()
	logger.Info("scheduler stopped")
}

// Wait blocks until every dispatched job has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// RunDue dispatches every job whose expression matches now and that has not
// already run in this minute.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := make([]*entry, len(s.entries))
	copy(current, s.entries)
	s.mu.Unlock()

	minute := now.Truncate(time.Minute)
	for _, e := range current {
		if !Match(e.expr, now) {
			continue
		}
		e.mu.Lock()
		already := e.lastRun.Equal(minute)
		e.mu.Unlock()
		if !already {
			s.dispatch(ctx, e, minute)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, minute time.Time) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		logger.Warn("scheduler: skipping overlapping run", "job", e.name)
		metrics.JobRuns.WithLabelValues(e.name, "skipped").Inc()
		return
	}
	e.running = true
	e.lastRun = minute
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("scheduler: job panicked", "job", e.name, "panic", r)
				metrics.JobRuns.WithLabelValues(e.name, "panic").Inc()
			}
			metrics.JobDuration.WithLabelValues(e.name).Observe(time.Since(start).Seconds())
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()

		logger.Info("scheduler: running job", "job", e.name)
		if err := e.task(ctx); err != nil {
			logger.Error("scheduler: job failed", "job", e.name, "error", err)
			metrics.JobRuns.WithLabelValues(e.name, "error").Inc()
			return
		}
		metrics.JobRuns.WithLabelValues(e.name, "ok").Inc()
		logger.Info("scheduler: job finished", "job", e.name, "duration", time.Since(start).String())
	}()
}

func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s [%s]", e.name, e.expr))
	}
	return out
}

// field bounds in expression order
var bounds = [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}

// Validate checks the expression syntax: each field is *, */n, a-b, n or a
// comma separated list of those.
func Validate(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Errorf("cron expression %q must have 5 fields", expr)
	}
	for i, f := range fields {
		for _, part := range strings.Split(f, ",") {
			if err := validatePart(part, bounds[i][0], bounds[i][1]); err != nil {
				return fmt.Errorf("cron expression %q: %w", expr, err)
			}
		}
	}
	return nil
}

func validatePart(part string, lo, hi int) error {
	switch {
	case part == "*":
		return nil
	case strings.HasPrefix(part, "*/"):
		step, err := strconv.Atoi(part[2:])
		if err != nil || step <= 0 {
			return fmt.Errorf("invalid step %q", part)
		}
		return nil
	case strings.Contains(part, "-"):
		a, b, ok := strings.Cut(part, "-")
		from, err1 := strconv.Atoi(a)
		to, err2 := strconv.Atoi(b)
		if !ok || err1 != nil || err2 != nil || from > to || from < lo || to > hi {
			return fmt.Errorf("invalid range %q", part)
		}
		return nil
	default:
		n, err := strconv.Atoi(part)
		if err != nil || n < lo || n > hi {
			return fmt.Errorf("invalid value %q", part)
		}
		return nil
	}
}

// Match reports whether t satisfies expr. Invalid expressions never match.
func Match(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	values := [5]int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, values[i]) {
			return false
		}
	}
	return true
}

func matchField(field string, val int) bool {
	for _, part := range strings.Split(field, ",") {
		if matchPart(part, val) {
			return true
		}
	}
	return false
}

func matchPart(part string, val int) bool {
	switch {
	case part == "*":
		return true
	case strings.HasPrefix(part, "*/"):
		step, err := strconv.Atoi(part[2:])
		return err == nil && step > 0 && val%step == 0
	case strings.Contains(part, "-"):
		a, b, _ := strings.Cut(part, "-")
		lo, err1 := strconv.Atoi(a)
		hi, err2 := strconv.Atoi(b)
		return err1 == nil && err2 == nil && val >= lo && val <= hi
	default:
		n, err := strconv.Atoi(part)
		return err == nil && n == val
	}
}
