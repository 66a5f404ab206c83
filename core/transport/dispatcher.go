package transport

import "sync"

// Handler consumes one inbound message.
type Handler func(Message)

// Dispatcher fans inbound messages out to per-kind subscribers.
// Handlers for the same kind run in registration order. Dispatch
// iterates over a snapshot, so a handler may unsubscribe itself (or
// any other handler) without corrupting the walk; a handler removed
// mid-dispatch can still see the message already in flight.
type Dispatcher struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Kind][]subscription
}

type subscription struct {
	id      int
	handler Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[Kind][]subscription{}}
}

// On registers a handler for the given kind and returns a function
// that removes it. Calling the returned function more than once is
// harmless.
func (d *Dispatcher) On(kind Kind, handler Handler) func() {
	if d == nil || handler == nil {
		return func() {}
	}

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.handlers[kind] = append(d.handlers[kind], subscription{id: id, handler: handler})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		subs := d.handlers[kind]
		for i, sub := range subs {
			if sub.id == id {
				d.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch delivers the message to every handler registered for its
// kind.
func (d *Dispatcher) Dispatch(msg Message) {
	if d == nil || msg == nil {
		return
	}

	d.mu.RLock()
	subs := make([]subscription, len(d.handlers[msg.WireKind()]))
	copy(subs, d.handlers[msg.WireKind()])
	d.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(msg)
	}
}
