package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tickler/internal/domain/entity"
	"tickler/internal/domain/repository"
	appErrors "tickler/internal/pkg/errors"
	"tickler/internal/pkg/logger"

	"github.com/google/uuid"
)

type engineImpl struct {
	store   repository.SnapshotStore
	gateway NotificationGateway
	log     logger.Logger
	body    string

	// mu serializes every mutation, including gateway-event handling.
	// The collection has a single logical writer.
	mu    sync.Mutex
	items map[string]*entity.Reminder

	subMu       sync.Mutex
	subscribers map[int]func()
	nextSubID   int

	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// NewEngine creates a new instance of the reminder engine. body is the
// notification body text used for every scheduled notification.
func NewEngine(
	store repository.SnapshotStore,
	gateway NotificationGateway,
	body string,
	log logger.Logger,
) Engine {
	return &engineImpl{
		store:       store,
		gateway:     gateway,
		log:         log,
		body:        body,
		items:       make(map[string]*entity.Reminder),
		subscribers: make(map[int]func()),
		now:         time.Now,
		done:        make(chan struct{}),
	}
}

// Initialize loads the persisted collection and starts the gateway event
// pump. Previously scheduled reminders are NOT re-registered with the
// gateway after a restart; their notification is lost. That matches the
// observed lifecycle: a reminder's notification opportunity is consumed by
// the process that created it.
func (e *engineImpl) Initialize(ctx context.Context) error {
	reminders, err := e.store.Load(ctx)
	if err != nil {
		// Treat any load failure as absent state.
		e.log.Error("Failed to load reminder snapshot, starting empty", err)
		reminders = nil
	}

	e.mu.Lock()
	lost := 0
	for _, r := range reminders {
		// A persisted handle belonged to the previous process's gateway
		// and no longer identifies anything.
		if r.NotificationHandle != nil {
			r.NotificationHandle = nil
			lost++
		}
		e.items[r.ID] = r
	}
	e.mu.Unlock()

	if lost > 0 {
		e.log.Warn(fmt.Sprintf("%d reminders lost their scheduled notification across restart", lost))
	}
	e.log.Info(fmt.Sprintf("Engine initialized with %d reminders", len(reminders)))

	go e.pumpGatewayEvents()
	return nil
}

// pumpGatewayEvents funnels the gateway's asynchronous callbacks through
// the same serialized mutation path as user commands.
func (e *engineImpl) pumpGatewayEvents() {
	for {
		select {
		case ev, ok := <-e.gateway.Events():
			if !ok {
				return
			}
			if ev.Kind == EventUserActed && ev.Action != ActionComplete {
				e.log.Debug(fmt.Sprintf("Ignoring unknown user action %d for reminder %s", ev.Action, ev.CorrelationID))
				continue
			}
			e.HandleGatewayEvent(context.Background(), ev.CorrelationID)
		case <-e.done:
			return
		}
	}
}

// Create adds a new reminder and schedules its notification when fireAt is
// strictly in the future.
func (e *engineImpl) Create(ctx context.Context, title string, fireAt time.Time) (*entity.Reminder, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", appErrors.ErrValidation)
	}

	e.mu.Lock()
	r := &entity.Reminder{
		ID:     uuid.NewString(),
		Title:  title,
		FireAt: fireAt,
	}

	if fireAt.After(e.now()) {
		handle, err := e.gateway.Schedule(fireAt, title, e.body, r.ID)
		switch {
		case err == nil:
			r.NotificationHandle = &handle
		case errors.Is(err, appErrors.ErrNotPermitted):
			// Not fatal: the reminder is created anyway, flagged so the
			// presentation layer can surface the denial.
			r.NotifyDenied = true
			e.log.Warn(fmt.Sprintf("Notification permission denied, created reminder %s without a schedule", r.ID))
		default:
			e.log.Error(fmt.Sprintf("Failed to schedule notification for reminder %s", r.ID), err)
		}
	}

	e.items[r.ID] = r
	e.persistLocked(ctx)
	out := r.Clone()
	e.mu.Unlock()

	e.notifyChanged()
	e.log.Info(fmt.Sprintf("Created reminder %s (scheduled=%t)", out.ID, out.Scheduled()))
	return out, nil
}

// Toggle flips the completed flag of a reminder.
func (e *engineImpl) Toggle(ctx context.Context, id string) (*entity.Reminder, error) {
	e.mu.Lock()
	r, ok := e.items[id]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", appErrors.ErrNotFound, id)
	}

	r.Completed = !r.Completed
	if r.Completed && r.NotificationHandle != nil {
		e.gateway.Cancel(*r.NotificationHandle)
		r.NotificationHandle = nil
	}
	// Un-completing never re-schedules: the notification opportunity is
	// consumed once, and the fire time may already be in the past.

	e.persistLocked(ctx)
	out := r.Clone()
	e.mu.Unlock()

	e.notifyChanged()
	return out, nil
}

// Delete removes a reminder, cancelling its outstanding notification first.
func (e *engineImpl) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	r, ok := e.items[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", appErrors.ErrNotFound, id)
	}

	if r.NotificationHandle != nil {
		e.gateway.Cancel(*r.NotificationHandle)
	}
	delete(e.items, id)
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.notifyChanged()
	e.log.Info(fmt.Sprintf("Deleted reminder %s", id))
	return nil
}

// DeleteMany removes every matched reminder in one pass. Unmatched IDs are
// silently ignored; bulk delete is best-effort, not strict.
func (e *engineImpl) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	e.mu.Lock()
	var handles []entity.Handle
	removed := 0
	for _, id := range ids {
		r, ok := e.items[id]
		if !ok {
			continue
		}
		if r.NotificationHandle != nil {
			handles = append(handles, *r.NotificationHandle)
		}
		delete(e.items, id)
		removed++
	}

	if removed == 0 {
		e.mu.Unlock()
		return nil
	}
	if len(handles) > 0 {
		// One batched gateway call instead of a cancel per item.
		e.gateway.CancelMany(handles)
	}
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.notifyChanged()
	e.log.Info(fmt.Sprintf("Bulk-deleted %d of %d requested reminders", removed, len(ids)))
	return nil
}

// HandleGatewayEvent marks the correlated reminder complete after its
// notification fired or the user completed it from the notification
// surface. Unknown IDs are ignored (the reminder may have been deleted
// since scheduling) and repeated calls are no-ops.
func (e *engineImpl) HandleGatewayEvent(ctx context.Context, correlationID string) {
	e.mu.Lock()
	r, ok := e.items[correlationID]
	if !ok {
		e.mu.Unlock()
		e.log.Debug(fmt.Sprintf("Gateway event for unknown reminder %s, ignoring", correlationID))
		return
	}
	if r.Completed && r.NotificationHandle == nil {
		e.mu.Unlock()
		return
	}

	r.Completed = true
	if r.NotificationHandle != nil {
		// Best-effort: the notification has already fired, so the gateway
		// treats this as a no-op.
		e.gateway.Cancel(*r.NotificationHandle)
		r.NotificationHandle = nil
	}
	e.persistLocked(ctx)
	e.mu.Unlock()

	e.notifyChanged()
	e.log.Info(fmt.Sprintf("Reminder %s completed via gateway event", correlationID))
}

// List returns copies of all reminders. Ordering is left to the caller;
// the collection itself is an unordered set.
func (e *engineImpl) List(ctx context.Context) []*entity.Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*entity.Reminder, 0, len(e.items))
	for _, r := range e.items {
		out = append(out, r.Clone())
	}
	return out
}

// Subscribe registers a collection-changed callback. Callbacks run outside
// the collection lock, after the mutation is visible. The returned function
// removes the registration.
func (e *engineImpl) Subscribe(fn func()) func() {
	e.subMu.Lock()
	e.nextSubID++
	id := e.nextSubID
	e.subscribers[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subscribers, id)
	}
}

// Close stops the gateway event pump.
func (e *engineImpl) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}

// persistLocked saves the full collection. Persistence is best-effort:
// failures are logged and the in-memory state stays authoritative.
func (e *engineImpl) persistLocked(ctx context.Context) {
	items := make([]*entity.Reminder, 0, len(e.items))
	for _, r := range e.items {
		items = append(items, r)
	}
	if err := e.store.Save(ctx, items); err != nil {
		e.log.Error("Failed to save reminder snapshot", err)
	}
}

func (e *engineImpl) notifyChanged() {
	e.subMu.Lock()
	subs := make([]func(), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
