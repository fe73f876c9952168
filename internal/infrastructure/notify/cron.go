package notify

import (
	"fmt"
	"sync"
	"time"

	"tickler/internal/application/service"
	"tickler/internal/domain/entity"
	appErrors "tickler/internal/pkg/errors"
	"tickler/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// eventBuffer bounds how many undelivered events the gateway holds before
// a firing job has to wait for the engine.
const eventBuffer = 64

// CronGateway is a local notification gateway backed by a cron scheduler.
// Each scheduled notification becomes a one-shot cron job that delivers the
// notification, emits a Fired event and removes itself. It implements
// service.NotificationGateway.
type CronGateway struct {
	cron      *cron.Cron
	log       logger.Logger
	permitted bool
	events    chan service.GatewayEvent
	done      chan struct{}
	stopOnce  sync.Once
	// immediate tracks in-flight immediate deliveries, which run outside
	// the cron scheduler's own job accounting.
	immediate sync.WaitGroup

	// mu protects the handle-to-entry mapping.
	mu         sync.Mutex
	entries    map[entity.Handle]cron.EntryID
	nextHandle entity.Handle

	// deliver presents the notification at fire time. The default is a log
	// line; an OS-level notifier can be plugged in without touching
	// scheduling.
	deliver func(title, body string)
}

// NewCronGateway creates and starts a cron-backed gateway. permitted models
// the notification permission grant: when false, Schedule fails closed with
// ErrNotPermitted.
func NewCronGateway(permitted bool, log logger.Logger) *CronGateway {
	c := cron.New(cron.WithSeconds())
	c.Start()
	g := &CronGateway{
		cron:      c,
		log:       log,
		permitted: permitted,
		events:    make(chan service.GatewayEvent, eventBuffer),
		done:      make(chan struct{}),
		entries:   make(map[entity.Handle]cron.EntryID),
	}
	g.deliver = func(title, body string) {
		log.Info(fmt.Sprintf("🔔 %s: %s", title, body))
	}
	log.Info("Cron notification gateway started.")
	return g
}

// SetDeliverer replaces the default log delivery with an external notifier.
// Must be called before the first Schedule.
func (g *CronGateway) SetDeliverer(fn func(title, body string)) {
	g.deliver = fn
}

// oneShotSchedule activates exactly once, at the full target date, and
// never again. A plain cron spec carries no year, which would match the
// same minute every year.
type oneShotSchedule struct {
	at time.Time
}

// Next implements cron.Schedule.
func (s oneShotSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

// Schedule registers a notification to fire at fireAt and returns its handle.
// The trigger resolves to the minute; a fire time inside the already-started
// current minute delivers immediately instead of waiting for a minute that
// will never come.
func (g *CronGateway) Schedule(fireAt time.Time, title, body, correlationID string) (entity.Handle, error) {
	if !g.permitted {
		return 0, fmt.Errorf("%w: notification permission not granted", appErrors.ErrNotPermitted)
	}

	target := fireAt.Truncate(time.Minute)

	g.mu.Lock()
	g.nextHandle++
	handle := g.nextHandle
	g.mu.Unlock()

	jobFunc := func() {
		g.deliver(title, body)
		if entryID, ok := g.takeEntry(handle); ok {
			g.cron.Remove(entryID)
		}
		select {
		case g.events <- service.GatewayEvent{CorrelationID: correlationID, Kind: service.EventFired}:
		case <-g.done:
		}
	}

	if !target.After(time.Now()) {
		// The caller judged fireAt strictly future, but minute truncation
		// landed the target at or before now.
		g.immediate.Add(1)
		go func() {
			defer g.immediate.Done()
			jobFunc()
		}()
		g.log.Info(fmt.Sprintf("Notification %d for reminder %s fires immediately (target minute already begun)", handle, correlationID))
		return handle, nil
	}

	entryID := g.cron.Schedule(oneShotSchedule{at: target}, cron.FuncJob(jobFunc))

	g.mu.Lock()
	g.entries[handle] = entryID
	g.mu.Unlock()

	g.log.Info(fmt.Sprintf("Scheduled notification %d for reminder %s at %v", handle, correlationID, target))
	return handle, nil
}

// Cancel drops an outstanding notification. Cancelling an unknown, fired or
// already-cancelled handle is a no-op.
func (g *CronGateway) Cancel(handle entity.Handle) {
	if entryID, ok := g.takeEntry(handle); ok {
		g.cron.Remove(entryID)
		g.log.Info(fmt.Sprintf("Cancelled notification %d", handle))
	} else {
		g.log.Debug(fmt.Sprintf("No outstanding notification %d to cancel", handle))
	}
}

// CancelMany drops a batch of outstanding notifications.
func (g *CronGateway) CancelMany(handles []entity.Handle) {
	for _, h := range handles {
		g.Cancel(h)
	}
}

// UserActed reports that the user acted on the notification surface for the
// given reminder. The engine receives it as an asynchronous event, the same
// way a fired notification arrives.
func (g *CronGateway) UserActed(correlationID string, action service.ActionKind) {
	select {
	case g.events <- service.GatewayEvent{CorrelationID: correlationID, Kind: service.EventUserActed, Action: action}:
	case <-g.done:
	}
}

// Events returns the asynchronous event delivery channel.
func (g *CronGateway) Events() <-chan service.GatewayEvent {
	return g.events
}

// Stop stops the scheduler, waits for running jobs and closes the event
// channel.
func (g *CronGateway) Stop() {
	g.stopOnce.Do(func() {
		close(g.done)
		ctx := g.cron.Stop()
		<-ctx.Done()
		g.immediate.Wait()
		close(g.events)
		g.log.Info("Cron notification gateway stopped.")
	})
}

func (g *CronGateway) takeEntry(handle entity.Handle) (cron.EntryID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entryID, ok := g.entries[handle]
	if ok {
		delete(g.entries, handle)
	}
	return entryID, ok
}
