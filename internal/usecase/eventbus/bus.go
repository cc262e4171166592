package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"deckbridge/internal/domain"
)

type listener struct {
	id uint64
	fn domain.EventHandler
}

// Bus is an in-process, goroutine-safe event bus. The session publishes
// link, command, and telemetry events here; the gateway and loggers
// subscribe.
type Bus struct {
	mu     sync.RWMutex
	typed  map[domain.EventType][]listener
	all    []listener
	nextID atomic.Uint64
	logger *slog.Logger
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates an event bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		typed:  make(map[domain.EventType][]listener),
		logger: logger,
	}
}

// Publish fans out an event to matching typed listeners and all-event
// listeners. Each handler runs in its own goroutine; panicking handlers
// are recovered so one bad subscriber cannot take down the session.
func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	if b.closed.Load() {
		return
	}

	b.mu.RLock()
	targets := make([]listener, 0, len(b.typed[event.Type])+len(b.all))
	targets = append(targets, b.typed[event.Type]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, l := range targets {
		b.dispatch(ctx, event, l)
	}
}

func (b *Bus) dispatch(ctx context.Context, event domain.Event, l listener) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("event handler panicked",
					"event", string(event.Type),
					"session_id", event.SessionID,
					"panic", r,
				)
			}
		}()
		l.fn(ctx, event)
	}()
}

// Subscribe registers a handler for a specific event type.
// Returns an unsubscribe function.
func (b *Bus) Subscribe(eventType domain.EventType, handler domain.EventHandler) func() {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.typed[eventType] = append(b.typed[eventType], listener{id: id, fn: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.typed[eventType] = remove(b.typed[eventType], id)
	}
}

// SubscribeAll registers a handler that receives every event.
// Returns an unsubscribe function.
func (b *Bus) SubscribeAll(handler domain.EventHandler) func() {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.all = append(b.all, listener{id: id, fn: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = remove(b.all, id)
	}
}

func remove(ls []listener, id uint64) []listener {
	for i, l := range ls {
		if l.id == id {
			return append(ls[:i], ls[i+1:]...)
		}
	}
	return ls
}

// Close prevents new publishes and waits for all in-flight handlers to
// finish. Close is idempotent.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.wg.Wait()
}
