package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultInterval = time.Minute

// Processor runs one scheduling pass.
type Processor interface {
	ProcessScheduledPosts(ctx context.Context)
}

// Scheduler drives a Processor on a fixed interval. The zero value is not
// usable; construct with NewScheduler.
type Scheduler struct {
	processor Processor
	clock     clockwork.Clock
	interval  time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

func NewScheduler(processor Processor, interval time.Duration, clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		processor: processor,
		clock:     clock,
		interval:  interval,
	}
}

// Start runs one pass immediately, then one per interval until Stop is
// called or ctx ends. Calling Start on a running scheduler does nothing; once
// ctx ends the scheduler reports not running and may be started again.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh != nil {
		s.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	done := make(chan struct{})
	s.stopCh, s.done = stopCh, done
	s.mu.Unlock()

	slog.Info("scheduler started", "interval", s.interval)
	s.tick(ctx)

	go s.loop(ctx, stopCh, done)
}

// Stop prevents further passes and waits for an in-flight pass to finish.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stopCh, done := s.stopCh, s.done
	s.stopCh, s.done = nil, nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done
	slog.Info("scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCh != nil
}

func (s *Scheduler) loop(ctx context.Context, stopCh chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			s.release(stopCh)
			slog.Info("scheduler stopped", "reason", ctx.Err())
			return
		case <-ticker.Chan():
			select {
			case <-stopCh:
				return
			default:
			}
			s.tick(ctx)
		}
	}
}

// release forgets the run owning stopCh so the scheduler can be started
// again. A concurrent Stop or newer Start has already replaced it otherwise.
func (s *Scheduler) release(stopCh chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == stopCh {
		s.stopCh, s.done = nil, nil
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler tick panicked", "panic", r)
		}
	}()
	s.processor.ProcessScheduledPosts(ctx)
}
