// Package scheduler drives the delivery dispatcher on a fixed cadence. It
// is start/stoppable at runtime so operators can pause deliveries without
// restarting the service.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type Scheduler struct {
	every time.Duration
	run   func(context.Context)

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(every time.Duration, run func(context.Context)) (*Scheduler, error) {
	if every <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if run == nil {
		return nil, errors.New("run must not be nil")
	}
	return &Scheduler{
		every: every,
		run:   run,
		done:  make(chan struct{}),
	}, nil
}

// Start launches the loop and fires one immediate pass. Returns false if
// already running.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go s.loop(ctx)

	return true
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	slog.Info("dispatch loop started", "interval", s.every.String())

	s.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("dispatch loop stopping")
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

// Stop cancels the loop and waits for the in-flight pass to drain. Returns
// false if not running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.done
	s.running.Store(false)

	slog.Info("dispatch loop stopped")
	return true
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// pass runs one iteration, containing any panic so a bad batch cannot kill
// the loop.
func (s *Scheduler) pass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch pass panic recovered", "panic", r)
		}
	}()

	start := time.Now()
	s.run(ctx)
	slog.Info("dispatch pass completed", "duration_ms", time.Since(start).Milliseconds())
}
