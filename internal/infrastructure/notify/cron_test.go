package notify

import (
	"errors"
	"testing"
	"time"

	"tickler/internal/application/service"
	"tickler/internal/domain/entity"
	appErrors "tickler/internal/pkg/errors"
	"tickler/internal/pkg/logger"
)

func TestScheduleFailsClosedWithoutPermission(t *testing.T) {
	g := NewCronGateway(false, logger.New(false))
	defer g.Stop()

	_, err := g.Schedule(time.Now().Add(time.Hour), "Buy milk", "Reminder", "r1")
	if !errors.Is(err, appErrors.ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
}

func TestScheduleReturnsDistinctHandles(t *testing.T) {
	g := NewCronGateway(true, logger.New(false))
	defer g.Stop()

	fireAt := time.Now().Add(time.Hour)
	h1, err := g.Schedule(fireAt, "a", "Reminder", "r1")
	if err != nil {
		t.Fatalf("schedule r1: %v", err)
	}
	h2, err := g.Schedule(fireAt, "b", "Reminder", "r2")
	if err != nil {
		t.Fatalf("schedule r2: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("handles must be distinct, both %d", h1)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	g := NewCronGateway(true, logger.New(false))
	defer g.Stop()

	h, err := g.Schedule(time.Now().Add(time.Hour), "a", "Reminder", "r1")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	g.Cancel(h)
	g.Cancel(h)        // already cancelled
	g.Cancel(h + 1000) // never existed
	g.CancelMany([]entity.Handle{h, h + 1000})
}

func TestUserActedDeliversEvent(t *testing.T) {
	g := NewCronGateway(true, logger.New(false))
	defer g.Stop()

	g.UserActed("r1", service.ActionComplete)

	select {
	case ev := <-g.Events():
		if ev.CorrelationID != "r1" || ev.Kind != service.EventUserActed || ev.Action != service.ActionComplete {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestStopClosesEventChannel(t *testing.T) {
	g := NewCronGateway(true, logger.New(false))
	g.Stop()
	g.Stop() // second stop is a no-op

	select {
	case _, ok := <-g.Events():
		if ok {
			t.Fatal("expected closed channel, got an event")
		}
	case <-time.After(time.Second):
		t.Fatal("event channel not closed after Stop")
	}
}

func TestOneShotScheduleHonorsFullDate(t *testing.T) {
	target := time.Date(2028, 9, 10, 9, 0, 0, 0, time.Local)
	sched := oneShotSchedule{at: target}

	// The same minute of an earlier year must not activate the trigger.
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local)
	if next := sched.Next(now); !next.Equal(target) {
		t.Fatalf("Next(%v) = %v, want %v", now, next, target)
	}
}

func TestOneShotScheduleNeverReactivates(t *testing.T) {
	target := time.Date(2026, 9, 2, 9, 0, 0, 0, time.Local)
	sched := oneShotSchedule{at: target}

	if next := sched.Next(target); !next.IsZero() {
		t.Fatalf("Next(%v) after activation = %v, want zero", target, next)
	}
	if next := sched.Next(target.Add(time.Second)); !next.IsZero() {
		t.Fatalf("schedule reactivated a later pass at %v", next)
	}
}

func TestScheduleInsideCurrentMinuteFiresImmediately(t *testing.T) {
	g := NewCronGateway(true, logger.New(false))
	defer g.Stop()

	// A fire time whose minute has already begun: truncation lands at or
	// before now, so waiting on the cron trigger would skip it.
	fireAt := time.Now().Truncate(time.Minute).Add(30 * time.Second)
	if _, err := g.Schedule(fireAt, "soon", "Reminder", "r1"); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case ev := <-g.Events():
		if ev.CorrelationID != "r1" || ev.Kind != service.EventFired {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate fired event for a target inside the current minute")
	}
}

func TestScheduleFarFutureDoesNotFireEarly(t *testing.T) {
	g := NewCronGateway(true, logger.New(false))
	defer g.Stop()

	if _, err := g.Schedule(time.Now().AddDate(2, 0, 0), "far", "Reminder", "r1"); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case ev := <-g.Events():
		t.Fatalf("unexpected event %+v for a reminder two years out", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
