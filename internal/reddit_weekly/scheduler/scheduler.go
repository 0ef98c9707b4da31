package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"reddit-weekly/internal/reddit_weekly/model"
)

const defaultKeep = 20

var (
	// ErrRunInProgress is returned by Trigger while another pass is running.
	ErrRunInProgress = errors.New("run already in progress")
	// ErrStopped is returned by Trigger once shutdown has begun.
	ErrStopped = errors.New("worker stopped")
)

// Pipeline is satisfied by *pipeline.Runner.
type Pipeline interface {
	Run(ctx context.Context) (*model.RunReport, error)
}

// Worker runs the pipeline on a cron schedule and on demand. At most one pass
// runs at a time. Schedules are evaluated in UTC, like the week sections.
type Worker struct {
	Log      *zap.Logger
	Pipeline Pipeline
	// Schedule is a standard five-field cron expression.
	Schedule string
	// Keep bounds the in-memory report list.
	Keep int

	running atomic.Bool
	runWg   sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	recent  []model.RunReport
	cron    *cron.Cron
	entry   cron.EntryID
}

// Run blocks until ctx is cancelled, then waits for an in-flight pass.
func (w *Worker) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger{w.Log.Sugar()})),
	)
	entry, err := c.AddFunc(w.Schedule, func() {
		if _, err := w.Trigger(ctx); err != nil {
			switch {
			case errors.Is(err, ErrRunInProgress):
				w.Log.Warn("Skipping scheduled run, previous run still active")
				return
			case errors.Is(err, ErrStopped):
				return
			}
			w.Log.Error("Scheduled run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", w.Schedule, err)
	}

	w.mu.Lock()
	w.cron = c
	w.entry = entry
	w.mu.Unlock()

	c.Start()
	w.Log.Info("Scheduler started", zap.String("schedule", w.Schedule), zap.Time("next", w.Next()))

	<-ctx.Done()

	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	stopped := c.Stop()
	w.Log.Info("Waiting for running pass to complete...")
	<-stopped.Done()
	w.runWg.Wait()
	return nil
}

// Trigger runs one pass now and records its report.
func (w *Worker) Trigger(ctx context.Context) (*model.RunReport, error) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil, ErrStopped
	}
	if !w.running.CompareAndSwap(false, true) {
		w.mu.Unlock()
		return nil, ErrRunInProgress
	}
	w.runWg.Add(1)
	w.mu.Unlock()

	defer func() {
		w.running.Store(false)
		w.runWg.Done()
	}()

	start := time.Now()
	report, err := w.Pipeline.Run(ctx)
	if report != nil {
		w.remember(*report)
		w.Log.Info("Run finished",
			zap.String("run", report.ID),
			zap.String("status", report.Status),
			zap.Duration("took", time.Since(start)),
		)
	}
	return report, err
}

// Running reports whether a pass is in flight.
func (w *Worker) Running() bool {
	return w.running.Load()
}

// Next is the next scheduled fire time, zero before Run starts.
func (w *Worker) Next() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron == nil {
		return time.Time{}
	}
	return w.cron.Entry(w.entry).Next
}

// Recent returns up to limit reports, newest first.
func (w *Worker) Recent(limit int) []model.RunReport {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(w.recent)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.RunReport, 0, n)
	for i := len(w.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, w.recent[i])
	}
	return out
}

func (w *Worker) remember(r model.RunReport) {
	keep := w.Keep
	if keep <= 0 {
		keep = defaultKeep
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.recent = append(w.recent, r)
	if over := len(w.recent) - keep; over > 0 {
		w.recent = append([]model.RunReport(nil), w.recent[over:]...)
	}
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
