// Package negotiation throttles renegotiation offers on the offering side.
package negotiation

import (
	"context"
	"sync"
	"time"
)

// DefaultCooldown is how long the gate stays closed after an accepted
// renegotiation.
const DefaultCooldown = time.Second

// State is the gate's position in the (stable × open) state space.
type State int

const (
	NotStableOpen State = iota
	NotStableClosed
	StableOpen
	StableClosed
)

func (s State) String() string {
	switch s {
	case NotStableOpen:
		return "not-stable/open"
	case NotStableClosed:
		return "not-stable/closed"
	case StableOpen:
		return "stable/open"
	case StableClosed:
		return "stable/closed"
	default:
		return "unknown"
	}
}

// Stable reports whether the transport has connected at least once.
func (s State) Stable() bool { return s == StableOpen || s == StableClosed }

// Open reports whether a renegotiation would currently be accepted, stability
// aside.
func (s State) Open() bool { return s == NotStableOpen || s == StableOpen }

// AfterFunc schedules fn after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, fn func())

// Gate decides whether a negotiation-needed signal may produce an offer. It
// accepts only once the connection has become stable, and at most once per
// cooldown window.
type Gate struct {
	mu       sync.Mutex
	state    State
	cooldown time.Duration
	after    AfterFunc

	accepted int
	dropped  int
}

// Option configures a Gate.
type Option func(*Gate)

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.cooldown = d
		}
	}
}

// WithAfterFunc replaces the timer source used to reopen the gate.
func WithAfterFunc(after AfterFunc) Option {
	return func(g *Gate) {
		if after != nil {
			g.after = after
		}
	}
}

// NewGate returns a gate in the NotStableOpen state.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		state:    NotStableOpen,
		cooldown: DefaultCooldown,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Cooldown returns the configured cooldown window.
func (g *Gate) Cooldown() time.Duration { return g.cooldown }

// Accepted returns how many signals produced an offer attempt.
func (g *Gate) Accepted() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accepted
}

// Dropped returns how many signals were rejected.
func (g *Gate) Dropped() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dropped
}

// MarkStable records that the transport reached the connected state. It is
// idempotent and stability is never withdrawn.
func (g *Gate) MarkStable() {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case NotStableOpen:
		g.state = StableOpen
	case NotStableClosed:
		g.state = StableClosed
	}
}

// Negotiate runs offer if the gate is stable and open. The gate closes for
// the duration of offer and reopens one cooldown after offer returns,
// whatever the outcome. A rejected signal runs nothing and returns false.
func (g *Gate) Negotiate(ctx context.Context, offer func(context.Context) error) (accepted bool, err error) {
	if !g.acquire() {
		return false, nil
	}
	defer g.after(g.cooldown, g.reopen)

	return true, offer(ctx)
}

func (g *Gate) acquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StableOpen {
		g.dropped++
		return false
	}
	g.state = StableClosed
	g.accepted++
	return true
}

func (g *Gate) reopen() {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StableClosed:
		g.state = StableOpen
	case NotStableClosed:
		g.state = NotStableOpen
	}
}
