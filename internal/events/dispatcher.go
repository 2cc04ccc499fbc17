package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the async dispatcher cannot accept an event.
var ErrQueueFull = errors.New("event queue full")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a synchronous dispatcher. Handler errors are
// logged and do not stop later handlers.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish synchronously invokes handlers for the given event.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// AsyncDispatcher queues events and delivers them from Run. Publish never
// blocks on delivery.
type AsyncDispatcher struct {
	inner  Dispatcher
	queue  chan Event
	logger *zap.Logger
	done   chan struct{}
}

// NewAsyncDispatcher creates a queued dispatcher holding up to size events.
func NewAsyncDispatcher(size int, logger *zap.Logger) *AsyncDispatcher {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncDispatcher{
		inner:  NewInMemoryDispatcher(logger),
		queue:  make(chan Event, size),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Publish enqueues event, dropping it with ErrQueueFull when the queue is full.
func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		d.logger.Warn("dropping event, queue full",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
		return ErrQueueFull
	}
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.inner.Subscribe(eventType, handler)
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already queued before returning.
func (d *AsyncDispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		case <-ctx.Done():
			for {
				select {
				case event := <-d.queue:
					d.deliver(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (d *AsyncDispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *AsyncDispatcher) deliver(ctx context.Context, event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.Any("panic", r))
		}
	}()
	_ = d.inner.Publish(ctx, event)
}
