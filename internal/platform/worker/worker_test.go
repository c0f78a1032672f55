package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPeriodic_RunsImmediatelyAndRepeats(t *testing.T) {
	var calls int32
	p := NewPeriodic("test", 5*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, zerolog.Nop())

	p.Start(context.Background())
	if !p.Started() {
		t.Fatal("expected worker to be started")
	}
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&calls) < 3 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	p.Stop()

	if n := atomic.LoadInt32(&calls); n < 3 {
		t.Errorf("expected at least 3 runs, got %d", n)
	}
	if p.Started() {
		t.Error("expected worker to be stopped")
	}

	after := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&calls) != after {
		t.Error("task ran after Stop")
	}
}

func TestPeriodic_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	p := NewPeriodic("ctx", time.Hour, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("logged, not fatal")
	}, zerolog.Nop())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after context cancel")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected exactly one immediate run, got %d", calls)
	}
}

func TestPeriodic_StopWithoutStart(t *testing.T) {
	p := NewPeriodic("idle", time.Second, func(context.Context) error { return nil }, zerolog.Nop())
	p.Stop()
}

func TestCollection_StartStop(t *testing.T) {
	var c Collection
	var a, b int32
	c.Add(NewPeriodic("a", time.Hour, func(context.Context) error { atomic.AddInt32(&a, 1); return nil }, zerolog.Nop()))
	c.Add(NewPeriodic("b", time.Hour, func(context.Context) error { atomic.AddInt32(&b, 1); return nil }, zerolog.Nop()))
	c.Start(context.Background())
	c.Stop()
	if atomic.LoadInt32(&a) != 1 || atomic.LoadInt32(&b) != 1 {
		t.Errorf("expected one run each, got a=%d b=%d", a, b)
	}
}
