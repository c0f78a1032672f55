package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/platform/clock"
)

type fakeConfirmer struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeConfirmer) CompleteReminder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return f.err
}

func newTestService(confirmer Confirmer) (*Service, *clock.ManagedClock) {
	clk := clock.NewManaged(time.Date(2024, 3, 10, 8, 0, 0, 0, time.Local))
	return NewService(NewMemoryRepo(), confirmer, clk, zerolog.Nop()), clk
}

func TestService_Add(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	r := &Reminder{Title: " Vitamin D ", Time: "20:00", Kind: KindDose, AutoGenerated: true, Completed: true}
	if err := svc.Add(ctx, r); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.HasPrefix(r.ID, "manual-") {
		t.Errorf("expected manual- id, got %q", r.ID)
	}
	if r.Kind != KindManual || r.AutoGenerated || r.Completed {
		t.Errorf("manual reminder flags not enforced: %+v", r)
	}
	if r.Date != "2024-03-10" || r.Recurring != RecurringDaily || r.Priority != PriorityMedium {
		t.Errorf("unexpected defaults: %+v", r)
	}

	second := &Reminder{Title: "Other", Time: "21:00"}
	if err := svc.Add(ctx, second); err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if second.ID == r.ID {
		t.Error("ids must not repeat within the same millisecond")
	}
}

func TestService_Add_Validation(t *testing.T) {
	svc, _ := newTestService(nil)
	tests := []Reminder{
		{Time: "08:00"},
		{Title: "No time"},
		{Title: "Bad date", Time: "08:00", Date: "10/03/2024"},
		{Title: "Bad priority", Time: "08:00", Priority: "urgent"},
		{Title: "Bad recurring", Time: "08:00", Recurring: "hourly"},
	}
	for _, r := range tests {
		r := r
		if err := svc.Add(context.Background(), &r); err == nil {
			t.Errorf("expected error for %+v", r)
		}
	}
}

func TestService_AppendDerived(t *testing.T) {
	svc, clk := newTestService(nil)
	ctx := context.Background()

	first, err := svc.AppendDerived(ctx, []medication.Record{{Name: "Metformin"}})
	if err != nil || len(first) != 2 {
		t.Fatalf("AppendDerived: %v %+v", err, first)
	}
	clk.WarpForward(time.Second)
	if _, err := svc.AppendDerived(ctx, []medication.Record{{Name: "Aspirin"}}); err != nil {
		t.Fatalf("second AppendDerived: %v", err)
	}

	all, _ := svc.All(ctx)
	if len(all) != 4 {
		t.Fatalf("expected append-only growth to 4, got %d", len(all))
	}
	if all[0].Medication != "Metformin" || all[2].Medication != "Aspirin" {
		t.Errorf("existing reminders must keep their position: %v", ids(all))
	}
}

func TestService_Toggle(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	r := &Reminder{Title: "Walk", Time: "18:00"}
	svc.Add(ctx, r)

	got, err := svc.Toggle(ctx, r.ID)
	if err != nil || !got.Completed {
		t.Fatalf("first toggle: %+v %v", got, err)
	}
	got, _ = svc.Toggle(ctx, r.ID)
	if got.Completed {
		t.Error("second toggle should clear completed")
	}
	if _, err := svc.Toggle(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_MarkTaken_Confirmed(t *testing.T) {
	confirmer := &fakeConfirmer{}
	svc, clk := newTestService(confirmer)
	ctx := context.Background()
	r := &Reminder{Title: "Take Aspirin", Time: "08:00"}
	svc.Add(ctx, r)

	got, err := svc.MarkTaken(ctx, r.ID)
	if err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if !got.Completed || len(got.TakenHistory) != 1 || !got.TakenHistory[0].Equal(clk.Now().UTC()) {
		t.Errorf("unexpected result: %+v", got)
	}
	if len(confirmer.calls) != 1 || confirmer.calls[0] != r.ID {
		t.Errorf("expected one confirmation, got %v", confirmer.calls)
	}

	again, err := svc.MarkTaken(ctx, r.ID)
	if err != nil || len(again.TakenHistory) != 1 {
		t.Errorf("marking a completed reminder must be a no-op: %+v %v", again, err)
	}
	if len(confirmer.calls) != 1 {
		t.Error("no confirmation expected for an already completed reminder")
	}
}

func TestService_MarkTaken_RollsBack(t *testing.T) {
	confirmer := &fakeConfirmer{err: errors.New("backend 500")}
	svc, _ := newTestService(confirmer)
	ctx := context.Background()
	r := &Reminder{Title: "Take Aspirin", Time: "08:00"}
	svc.Add(ctx, r)

	got, err := svc.MarkTaken(ctx, r.ID)
	if !errors.Is(err, ErrConfirmFailed) {
		t.Fatalf("expected ErrConfirmFailed, got %v", err)
	}
	if got == nil || got.Completed {
		t.Errorf("expected pre-command state to be returned, got %+v", got)
	}
	stored, _ := svc.Get(ctx, r.ID)
	if stored.Completed || len(stored.TakenHistory) != 0 {
		t.Errorf("store not rolled back: %+v", stored)
	}
}

// editingConfirmer changes the stored reminder while confirmation is in
// flight, then fails.
type editingConfirmer struct {
	svc *Service
}

func (c *editingConfirmer) CompleteReminder(ctx context.Context, id string) error {
	r, err := c.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	r.Priority = PriorityHigh
	r.Description = "with food"
	if err := c.svc.repo.Update(ctx, r); err != nil {
		return err
	}
	return errors.New("backend 500")
}

func TestService_MarkTaken_RollbackKeepsConcurrentEdits(t *testing.T) {
	confirmer := &editingConfirmer{}
	svc, _ := newTestService(confirmer)
	confirmer.svc = svc
	ctx := context.Background()
	r := &Reminder{Title: "Take Aspirin", Time: "08:00"}
	svc.Add(ctx, r)

	got, err := svc.MarkTaken(ctx, r.ID)
	if !errors.Is(err, ErrConfirmFailed) {
		t.Fatalf("expected ErrConfirmFailed, got %v", err)
	}
	stored, _ := svc.Get(ctx, r.ID)
	if stored.Completed || len(stored.TakenHistory) != 0 {
		t.Errorf("taken state not rolled back: %+v", stored)
	}
	if stored.Priority != PriorityHigh || stored.Description != "with food" {
		t.Errorf("concurrent edit lost by rollback: %+v", stored)
	}
	if got == nil || got.Priority != PriorityHigh || got.Completed {
		t.Errorf("expected the restored record to be returned, got %+v", got)
	}
}

func TestService_ListAndDue(t *testing.T) {
	svc, clk := newTestService(nil)
	ctx := context.Background()
	svc.Add(ctx, &Reminder{Title: "Now", Time: "8:00"})
	svc.Add(ctx, &Reminder{Title: "Later", Time: "20:00", Priority: PriorityHigh})

	listed, err := svc.List(ctx, FilterToday)
	if err != nil || len(listed) != 2 || listed[0].Title != "Later" {
		t.Errorf("expected high priority first: %+v %v", listed, err)
	}

	due, _ := svc.Due(ctx)
	if len(due) != 1 || due[0].Title != "Now" {
		t.Errorf("unexpected due set: %+v", due)
	}
	clk.WarpForward(time.Minute)
	if due, _ := svc.Due(ctx); len(due) != 0 {
		t.Errorf("nothing should be due at 08:01, got %+v", due)
	}
}
