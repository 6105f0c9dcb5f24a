package metrics

import "sync"

// Hub event names.
const (
	EventConnected       = "connected"
	EventDisconnected    = "disconnected"
	EventJoined          = "room_joined"
	EventPaired          = "room_paired"
	EventRoomOverfull    = "room_overfull"
	EventRelayed         = "relayed"
	EventDeadDestination = "dropped_dead_destination"
	EventMalformed       = "dropped_malformed"
	EventUnknownType     = "dropped_unknown_type"
	EventSendBufferFull  = "dropped_send_buffer_full"
)

// Metrics is a concurrency-safe counter registry. The hub writes from its
// event loop while the HTTP handler reads snapshots.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	m.Add(name, 1)
}

func (m *Metrics) Add(name string, delta uint64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.m[name] += delta
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
