// Package session wraps one peer connection at a time and exposes the offer,
// answer and remote-description steps of a call.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/media"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/protocol"
)

// Lifecycle is the state of the engine's current transport.
type Lifecycle int

const (
	Uninitialized Lifecycle = iota
	Active
	Closed
)

func (l Lifecycle) String() string {
	switch l {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Engine owns the current transport. A closed transport is replaced on the
// next offer or answer, and the last local stream is attached to the new one.
// Callbacks from a replaced transport are ignored.
type Engine struct {
	factory Factory
	log     *slog.Logger

	mu         sync.Mutex
	transport  Transport
	lifecycle  Lifecycle
	generation uint64
	stream     media.Stream
	created    int

	onNegotiationNeeded func()
	onStateChange       func(webrtc.PeerConnectionState)
	onRemoteTrack       func(*webrtc.TrackRemote, *webrtc.RTPReceiver)
	onICECandidate      func(json.RawMessage)
}

// NewEngine returns an engine that creates transports with factory.
func NewEngine(factory Factory, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		factory: factory,
		log:     logger.With("component", "session"),
	}
}

// OnNegotiationNeeded sets the handler for the transport's
// negotiation-needed signal.
func (e *Engine) OnNegotiationNeeded(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onNegotiationNeeded = fn
}

// OnConnectionStateChange sets the handler for connection state reports.
func (e *Engine) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStateChange = fn
}

// OnRemoteTrack sets the handler for inbound media.
func (e *Engine) OnRemoteTrack(fn func(*webrtc.TrackRemote, *webrtc.RTPReceiver)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onRemoteTrack = fn
}

// OnICECandidate sets the handler for locally gathered candidates, encoded as
// JSON ready to be relayed.
func (e *Engine) OnICECandidate(fn func(json.RawMessage)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onICECandidate = fn
}

// Lifecycle returns the state of the current transport.
func (e *Engine) Lifecycle() Lifecycle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifecycle
}

// TransportsCreated returns how many transports the engine has created.
func (e *Engine) TransportsCreated() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.created
}

// Stream returns the last local stream handed to the engine.
func (e *Engine) Stream() media.Stream {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stream
}

// RemoteDescription returns the committed remote description, if any.
func (e *Engine) RemoteDescription() *protocol.SessionDescription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.transport == nil {
		return nil
	}
	return fromPion(e.transport.RemoteDescription())
}

// LocalDescription returns the committed local description, if any.
func (e *Engine) LocalDescription() *protocol.SessionDescription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.transport == nil {
		return nil
	}
	return fromPion(e.transport.LocalDescription())
}

// CreateOffer ensures a transport exists, attaches stream, and creates and
// commits a local offer.
func (e *Engine) CreateOffer(ctx context.Context, stream media.Stream) (*protocol.SessionDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError("create offer", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.prepareLocked(stream); err != nil {
		return nil, newError("create offer", err)
	}
	return e.offerLocked("create offer")
}

// Renegotiate creates and commits a fresh offer on the current transport
// without touching its tracks.
func (e *Engine) Renegotiate(ctx context.Context) (*protocol.SessionDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError("renegotiate", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lifecycle != Active {
		return nil, newError("renegotiate", ErrNoTransport)
	}
	return e.offerLocked("renegotiate")
}

// CreateAnswer ensures a transport exists, attaches stream, commits the remote
// offer and creates and commits a local answer. A nil stream answers with the
// last stream the engine saw.
func (e *Engine) CreateAnswer(ctx context.Context, offer *protocol.SessionDescription, stream media.Stream) (*protocol.SessionDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError("create answer", err)
	}
	if !offer.Valid() {
		return nil, newError("create answer", ErrInvalidDescription)
	}
	remote, err := toPion(offer)
	if err != nil {
		return nil, newError("create answer", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.prepareLocked(stream); err != nil {
		return nil, newError("create answer", err)
	}
	if err := e.transport.SetRemoteDescription(remote); err != nil {
		return nil, wrapError("create answer", err, "set remote offer")
	}

	answer, err := e.transport.CreateAnswer()
	if err != nil {
		return nil, newError("create answer", err)
	}
	if err := e.transport.SetLocalDescription(answer); err != nil {
		return nil, wrapError("create answer", err, "set local answer")
	}
	return fromPion(e.transport.LocalDescription()), nil
}

// ApplyRemoteAnswer commits answer as the remote description. Without a
// transport, or with a structurally invalid answer, nothing is changed.
func (e *Engine) ApplyRemoteAnswer(ctx context.Context, answer *protocol.SessionDescription) error {
	if err := ctx.Err(); err != nil {
		return newError("apply answer", err)
	}
	if !answer.Valid() {
		e.log.Warn("ignoring invalid remote answer")
		return newError("apply answer", ErrInvalidDescription)
	}
	remote, err := toPion(answer)
	if err != nil {
		e.log.Warn("ignoring remote answer", "err", err)
		return newError("apply answer", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lifecycle != Active {
		e.log.Warn("remote answer without a transport", "lifecycle", e.lifecycle.String())
		return newError("apply answer", ErrNoTransport)
	}
	if err := e.transport.SetRemoteDescription(remote); err != nil {
		return newError("apply answer", err)
	}
	return nil
}

// AttachTracks adds every track of stream not already sent on the current
// transport. Calling it twice with the same stream adds nothing the second
// time.
func (e *Engine) AttachTracks(stream media.Stream) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lifecycle != Active {
		return newError("attach tracks", ErrNoTransport)
	}
	if stream == nil {
		return nil
	}
	e.stream = stream
	if err := e.attachLocked(stream); err != nil {
		return newError("attach tracks", err)
	}
	return nil
}

// ReattachTracks attaches the last local stream to the current transport.
func (e *Engine) ReattachTracks() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lifecycle != Active {
		return newError("reattach tracks", ErrNoTransport)
	}
	if err := e.reattachLocked(); err != nil {
		return newError("reattach tracks", err)
	}
	return nil
}

// reattachLocked attaches the retained stream, if any, to the current
// transport. Tracks already carried are skipped.
func (e *Engine) reattachLocked() error {
	if e.stream == nil {
		return nil
	}
	return e.attachLocked(e.stream)
}

// AddICECandidate decodes a relayed candidate and hands it to the transport.
func (e *Engine) AddICECandidate(raw json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return wrapError("add candidate", ErrInvalidCandidate, err.Error())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lifecycle != Active {
		e.log.Debug("candidate without a transport dropped")
		return newError("add candidate", ErrNoTransport)
	}
	if err := e.transport.AddICECandidate(candidate); err != nil {
		return newError("add candidate", err)
	}
	return nil
}

// Close closes the current transport. A later offer or answer starts a new
// one.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transport == nil || e.lifecycle == Closed {
		e.lifecycle = Closed
		return nil
	}
	e.lifecycle = Closed
	e.generation++
	return e.transport.Close()
}

// prepareLocked makes sure an active transport exists and carries stream.
// After a transport is replaced the retained stream is attached first.
func (e *Engine) prepareLocked(stream media.Stream) error {
	recreated, err := e.ensureLocked()
	if err != nil {
		return err
	}
	if recreated {
		if err := e.reattachLocked(); err != nil {
			return fmt.Errorf("reattach tracks: %w", err)
		}
	}
	if stream != nil {
		e.stream = stream
		return e.attachLocked(stream)
	}
	return nil
}

// ensureLocked creates a transport when there is none or the current one has
// closed. recreated reports whether a closed transport was replaced.
func (e *Engine) ensureLocked() (recreated bool, err error) {
	if e.lifecycle == Active && e.transport.ConnectionState() == webrtc.PeerConnectionStateClosed {
		e.lifecycle = Closed
	}

	switch e.lifecycle {
	case Active:
		return false, nil
	case Closed:
		recreated = true
	}

	e.generation++
	gen := e.generation

	t, err := e.factory(e.events(gen))
	if err != nil {
		return false, err
	}

	e.transport = t
	e.lifecycle = Active
	e.created++
	e.log.Debug("transport created", "generation", gen, "recreated", recreated)
	return recreated, nil
}

func (e *Engine) attachLocked(stream media.Stream) error {
	attached := make(map[string]bool)
	for _, track := range e.transport.SenderTracks() {
		attached[trackKey(track)] = true
	}

	for _, track := range stream.Tracks() {
		key := trackKey(track)
		if attached[key] {
			continue
		}
		if err := e.transport.AddTrack(track); err != nil {
			return err
		}
		attached[key] = true
	}
	return nil
}

func (e *Engine) offerLocked(op string) (*protocol.SessionDescription, error) {
	offer, err := e.transport.CreateOffer()
	if err != nil {
		return nil, newError(op, err)
	}
	if err := e.transport.SetLocalDescription(offer); err != nil {
		return nil, wrapError(op, err, "set local offer")
	}
	return fromPion(e.transport.LocalDescription()), nil
}

// events builds the callbacks for the transport of generation gen.
func (e *Engine) events(gen uint64) Events {
	return Events{
		NegotiationNeeded: func() {
			e.mu.Lock()
			fn := e.onNegotiationNeeded
			current := gen == e.generation
			e.mu.Unlock()

			if current && fn != nil {
				fn()
			}
		},
		ConnectionStateChange: func(state webrtc.PeerConnectionState) {
			e.mu.Lock()
			if gen != e.generation {
				e.mu.Unlock()
				return
			}
			if state == webrtc.PeerConnectionStateClosed {
				e.lifecycle = Closed
			}
			fn := e.onStateChange
			e.mu.Unlock()

			if fn != nil {
				fn(state)
			}
		},
		Track: func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
			e.mu.Lock()
			fn := e.onRemoteTrack
			current := gen == e.generation
			e.mu.Unlock()

			if current && fn != nil {
				fn(track, receiver)
			}
		},
		ICECandidate: func(c webrtc.ICECandidateInit) {
			e.mu.Lock()
			fn := e.onICECandidate
			current := gen == e.generation
			e.mu.Unlock()

			if !current || fn == nil {
				return
			}
			raw, err := json.Marshal(c)
			if err != nil {
				e.log.Debug("failed to encode candidate", "err", err)
				return
			}
			fn(raw)
		},
	}
}

func trackKey(t webrtc.TrackLocal) string {
	return t.StreamID() + "/" + t.ID()
}

func toPion(d *protocol.SessionDescription) (webrtc.SessionDescription, error) {
	t := webrtc.NewSDPType(d.Type)
	if t == webrtc.SDPTypeUnknown {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: type %q", ErrInvalidDescription, d.Type)
	}
	return webrtc.SessionDescription{Type: t, SDP: d.SDP}, nil
}

func fromPion(d *webrtc.SessionDescription) *protocol.SessionDescription {
	if d == nil {
		return nil
	}
	return &protocol.SessionDescription{Type: d.Type.String(), SDP: d.SDP}
}
