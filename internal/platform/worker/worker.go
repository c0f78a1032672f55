// Package worker runs periodic background tasks that can be stopped when their
// owner is torn down.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Worker is implemented by anything performing periodic background work.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	Started() bool
}

// TaskFunc is one iteration of a periodic task.
type TaskFunc func(ctx context.Context) error

// Periodic runs a TaskFunc immediately on Start and then once per interval
// until Stop is called or the start context is cancelled.
type Periodic struct {
	name     string
	interval time.Duration
	task     TaskFunc
	logger   zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewPeriodic creates a stopped Periodic worker.
func NewPeriodic(name string, interval time.Duration, task TaskFunc, logger zerolog.Logger) *Periodic {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Periodic{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.With().Str("worker", name).Logger(),
	}
}

// Start launches the loop. Calling Start on a running worker is a no-op.
func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.started = true

	go p.loop(ctx, p.done)
}

func (p *Periodic) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Periodic) runOnce(ctx context.Context) {
	if err := p.task(ctx); err != nil {
		p.logger.Error().Err(err).Msg("periodic task failed")
	}
}

// Stop cancels the loop and waits for the in-flight iteration to finish.
func (p *Periodic) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.started = false
	p.mu.Unlock()

	cancel()
	<-done
}

// Started reports whether the loop is running.
func (p *Periodic) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Collection starts and stops a group of workers together.
type Collection struct {
	workers []Worker
}

// Add registers a worker with the collection.
func (c *Collection) Add(w Worker) {
	c.workers = append(c.workers, w)
}

// Start starts every worker.
func (c *Collection) Start(ctx context.Context) {
	for _, w := range c.workers {
		w.Start(ctx)
	}
}

// Stop stops every worker in parallel and waits for all of them.
func (c *Collection) Stop() {
	var wg sync.WaitGroup
	for _, w := range c.workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			w.Stop()
		}(w)
	}
	wg.Wait()
}
