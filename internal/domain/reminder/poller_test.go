package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/platform/notification"
)

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []map[string]string
	tpls  []string
	fails int
}

func (f *fakeNotifier) Notify(_ context.Context, templateID, _, resourceID string, data map[string]string) (*notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("hub unavailable")
	}
	f.sent = append(f.sent, data)
	f.tpls = append(f.tpls, templateID)
	return &notification.Notification{ResourceID: resourceID}, nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestPoller_Check(t *testing.T) {
	svc, clk := newTestService(nil)
	ctx := context.Background()
	svc.Add(ctx, &Reminder{Title: "Take Aspirin", Medication: "Aspirin", Time: "08:00"})
	svc.Add(ctx, &Reminder{Title: "Stretch", Time: "8:00"})
	svc.Add(ctx, &Reminder{Title: "Later", Time: "09:00"})

	n := &fakeNotifier{}
	p := NewPoller(svc, n, time.Minute, zerolog.Nop())

	if err := p.Check(ctx); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n.count() != 2 {
		t.Fatalf("expected 2 notifications, got %d", n.count())
	}
	if n.sent[0]["medication"] != "Aspirin" || n.sent[1]["medication"] != "Stretch" {
		t.Errorf("unexpected subjects: %+v", n.sent)
	}
	if n.tpls[0] != notification.TemplateMedicationReminder {
		t.Errorf("unexpected template %q", n.tpls[0])
	}

	p.Check(ctx)
	if n.count() != 2 {
		t.Errorf("a reminder must be notified once per due minute, got %d", n.count())
	}

	clk.WarpForward(time.Hour)
	p.Check(ctx)
	if n.count() != 3 {
		t.Errorf("expected the 09:00 reminder to fire, got %d", n.count())
	}
}

func TestPoller_RetriesFailedDelivery(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	svc.Add(ctx, &Reminder{Title: "Take Aspirin", Time: "08:00"})

	n := &fakeNotifier{fails: 1}
	p := NewPoller(svc, n, time.Minute, zerolog.Nop())
	p.Check(ctx)
	if n.count() != 0 {
		t.Fatal("first delivery should have failed")
	}
	p.Check(ctx)
	if n.count() != 1 {
		t.Errorf("expected redelivery after failure, got %d", n.count())
	}
}

func TestPoller_StartStop(t *testing.T) {
	svc, _ := newTestService(nil)
	svc.Add(context.Background(), &Reminder{Title: "Take Aspirin", Time: "08:00"})

	n := &fakeNotifier{}
	p := NewPoller(svc, n, time.Hour, zerolog.Nop())
	p.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for n.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()
	if n.count() != 1 {
		t.Errorf("expected the immediate first check to notify, got %d", n.count())
	}
	if p.Started() {
		t.Error("expected poller to be stopped")
	}
}

func TestPoller_PrunesPastDays(t *testing.T) {
	svc, clk := newTestService(nil)
	ctx := context.Background()
	r := &Reminder{Title: "Take Aspirin", Time: "08:00"}
	svc.Add(ctx, r)

	n := &fakeNotifier{}
	p := NewPoller(svc, n, time.Minute, zerolog.Nop())
	p.sent["stale"] = "2024-03-01 08:00"
	if err := p.Check(ctx); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, ok := p.sent["stale"]; ok {
		t.Error("expected entries from past days to be dropped")
	}
	if p.sent[r.ID] != "2024-03-10 08:00" {
		t.Errorf("expected today's notification to be remembered, got %q", p.sent[r.ID])
	}

	clk.WarpForward(24 * time.Hour)
	p.Check(ctx)
	if len(p.sent) != 0 {
		t.Errorf("expected yesterday's entries to be dropped, got %v", p.sent)
	}
}
