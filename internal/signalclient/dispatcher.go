package signalclient

import (
	"slices"
	"sync"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/protocol"
)

// HandlerFunc handles one inbound message.
type HandlerFunc func(*protocol.Message)

// Dispatcher routes inbound messages to the handlers subscribed to their
// type.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[string]map[int]HandlerFunc
	next     int
}

// NewDispatcher returns an empty subscription table.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]map[int]HandlerFunc)}
}

// On subscribes fn to messages of type event and returns its unsubscribe
// function.
func (d *Dispatcher) On(event string, fn HandlerFunc) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.next
	d.next++
	if d.handlers[event] == nil {
		d.handlers[event] = make(map[int]HandlerFunc)
	}
	d.handlers[event][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.handlers[event], id)
			if len(d.handlers[event]) == 0 {
				delete(d.handlers, event)
			}
		})
	}
}

// Dispatch runs every handler subscribed to msg's type on the calling
// goroutine, in subscription order. It reports whether any handler ran.
func (d *Dispatcher) Dispatch(msg *protocol.Message) bool {
	d.mu.Lock()
	subs := d.handlers[msg.Type]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]HandlerFunc, len(ids))
	for i, id := range ids {
		fns[i] = subs[id]
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(msg)
	}
	return len(fns) > 0
}

// Len returns the number of live subscriptions.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, subs := range d.handlers {
		n += len(subs)
	}
	return n
}
