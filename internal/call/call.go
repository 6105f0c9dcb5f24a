// Package call runs one two-party call on the client: it joins a room, places
// or answers the call, and keeps the session renegotiated.
package call

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/media"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/negotiation"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/protocol"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/session"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/signalclient"
)

var (
	ErrNoPeer          = errors.New("no peer in room")
	ErrNotRunning      = errors.New("call is not running")
	ErrSignalingClosed = errors.New("signaling connection closed")
)

const eventBuffer = 64

// Signaler is the signaling connection a call talks through.
type Signaler interface {
	Emit(t string, payload any) error
	Incoming() <-chan *protocol.Message
}

// Options configures a Call. Engine, Gate, Capturer and Signaler are
// required.
type Options struct {
	Identity string
	Room     string

	// AutoCall places the call as soon as a peer is announced.
	AutoCall bool

	Signaler Signaler
	Engine   *session.Engine
	Gate     *negotiation.Gate
	Capturer media.Capturer
	Sink     media.Sink
	Observer Observer
	Logger   *slog.Logger
}

// Call is the client-side event loop. Every piece of call state is touched
// only from the Run goroutine.
type Call struct {
	identity string
	room     string
	autoCall bool

	signaler   Signaler
	engine     *session.Engine
	gate       *negotiation.Gate
	capturer   media.Capturer
	sink       media.Sink
	observer   Observer
	dispatcher *signalclient.Dispatcher
	log        *slog.Logger

	events chan func(context.Context)
	done   chan struct{}

	// Owned by Run.
	peer         string
	peerIdentity string
	stream       media.Stream

	statsMu sync.Mutex
	stats   Stats
}

// New creates a call. Nothing is sent until Run.
func New(opts Options) *Call {
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Sink == nil {
		opts.Sink = media.DiscardSink{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Call{
		identity:   opts.Identity,
		room:       opts.Room,
		autoCall:   opts.AutoCall,
		signaler:   opts.Signaler,
		engine:     opts.Engine,
		gate:       opts.Gate,
		capturer:   opts.Capturer,
		sink:       opts.Sink,
		observer:   opts.Observer,
		dispatcher: signalclient.NewDispatcher(),
		log:        opts.Logger.With("component", "call", "room", opts.Room),
		events:     make(chan func(context.Context), eventBuffer),
		done:       make(chan struct{}),
		stats: Stats{
			Room:     opts.Room,
			Identity: opts.Identity,
			State:    "new",
		},
	}
}

// Stats returns a snapshot of the call's counters.
func (c *Call) Stats() Stats {
	c.statsMu.Lock()
	s := c.stats
	c.statsMu.Unlock()

	if c.gate != nil {
		s.RenegotiationsDropped = c.gate.Dropped()
	}
	if c.engine != nil {
		s.Transports = c.engine.TransportsCreated()
	}
	return s
}

// Done is closed once Run has returned.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Join announces identity in room.
func (c *Call) Join() error {
	return c.signaler.Emit(protocol.EventRoomJoin, protocol.JoinPayload{
		Identity: c.identity,
		Room:     c.room,
	})
}

// Dial places the call to the peer announced in the room.
func (c *Call) Dial(ctx context.Context) error {
	errc := make(chan error, 1)
	if !c.post(func(runCtx context.Context) { errc <- c.dial(runCtx) }) {
		return ErrNotRunning
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrNotRunning
	}
}

// Run joins the room and processes signaling and session events until ctx
// ends or the signaling connection closes. The session is closed on return.
func (c *Call) Run(ctx context.Context) error {
	defer close(c.done)

	c.updateStats(func(s *Stats) { s.StartedAt = time.Now() })

	unsubscribe := c.subscribe(ctx)
	defer unsubscribe()

	c.wireEngine()
	defer c.engine.Close()

	if err := c.Join(); err != nil {
		return err
	}

	incoming := c.signaler.Incoming()
	for {
		select {
		case <-ctx.Done():
			c.setState("ended")
			return ctx.Err()

		case msg, ok := <-incoming:
			if !ok {
				c.setState("ended")
				return ErrSignalingClosed
			}
			if !c.dispatcher.Dispatch(msg) {
				c.log.Debug("unhandled message", "type", msg.Type)
			}

		case fn := <-c.events:
			fn(ctx)
		}
	}
}

// subscribe registers the call's handlers and returns a function removing
// all of them.
func (c *Call) subscribe(ctx context.Context) func() {
	handlers := map[string]func(context.Context, *protocol.Message) error{
		protocol.EventRoomJoined:   c.handleRoomJoined,
		protocol.EventUserJoined:   c.handleUserJoined,
		protocol.EventIncomingCall: c.handleIncomingCall,
		protocol.EventCallAccepted: c.handleCallAccepted,
		protocol.EventNegoNeeded:   c.handleNegoNeeded,
		protocol.EventNegoFinal:    c.handleNegoFinal,
		protocol.EventICECandidate: c.handleRemoteCandidate,
	}

	offs := make([]func(), 0, len(handlers))
	for event, handle := range handlers {
		offs = append(offs, c.dispatcher.On(event, func(msg *protocol.Message) {
			if err := handle(ctx, msg); err != nil {
				c.fail(msg.Type, err)
			}
		}))
	}

	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// wireEngine routes session callbacks, which arrive on pion goroutines, into
// the Run loop.
func (c *Call) wireEngine() {
	c.engine.OnNegotiationNeeded(func() {
		c.post(c.handleNegotiationNeeded)
	})
	c.engine.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		c.post(func(context.Context) { c.handleStateChange(state) })
	})
	c.engine.OnICECandidate(func(raw json.RawMessage) {
		c.post(func(context.Context) { c.sendCandidate(raw) })
	})
	c.engine.OnRemoteTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		c.post(func(ctx context.Context) { c.handleRemoteTrack(ctx, track) })
	})
}

// post queues fn for the Run loop. It reports false once Run has returned.
func (c *Call) post(fn func(context.Context)) bool {
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

func (c *Call) handleRoomJoined(_ context.Context, msg *protocol.Message) error {
	var joined protocol.JoinPayload
	if err := msg.DecodePayload(&joined); err != nil {
		return err
	}

	c.log.Info("joined room", "identity", joined.Identity)
	c.setState("waiting")
	c.observer.Joined(joined.Room, joined.Identity)
	return nil
}

func (c *Call) handleUserJoined(ctx context.Context, msg *protocol.Message) error {
	var peer protocol.PeerJoinedPayload
	if err := msg.DecodePayload(&peer); err != nil {
		return err
	}

	c.peer = peer.ConnectionID
	c.peerIdentity = peer.Identity
	c.updateStats(func(s *Stats) {
		s.PeerID = peer.ConnectionID
		s.PeerIdentity = peer.Identity
	})
	c.log.Info("peer joined", "peer", peer.Identity, "conn", peer.ConnectionID)
	c.observer.PeerJoined(peer.Identity, peer.ConnectionID)

	if c.autoCall {
		return c.dial(ctx)
	}
	return nil
}

func (c *Call) dial(ctx context.Context) error {
	if c.peer == "" {
		return ErrNoPeer
	}

	stream, err := c.capture(ctx)
	if err != nil {
		return err
	}

	offer, err := c.engine.CreateOffer(ctx, stream)
	if err != nil {
		return err
	}

	if err := c.signaler.Emit(protocol.EventUserCall, protocol.Signal{To: c.peer, Offer: offer}); err != nil {
		return err
	}

	c.updateStats(func(s *Stats) {
		s.OffersSent++
		s.State = "calling"
	})
	c.observer.Calling(c.peerName())
	return nil
}

func (c *Call) handleIncomingCall(ctx context.Context, msg *protocol.Message) error {
	var sig protocol.Signal
	if err := msg.DecodePayload(&sig); err != nil {
		return err
	}

	c.peer = sig.From
	c.updateStats(func(s *Stats) { s.PeerID = sig.From })
	c.observer.IncomingCall(c.peerName())

	stream, err := c.capture(ctx)
	if err != nil {
		return err
	}

	answer, err := c.engine.CreateAnswer(ctx, sig.Offer, stream)
	if err != nil {
		return err
	}

	if err := c.signaler.Emit(protocol.EventCallAccepted, protocol.Signal{To: sig.From, Answer: answer}); err != nil {
		return err
	}

	c.updateStats(func(s *Stats) {
		s.AnswersSent++
		s.State = "answering"
	})
	return nil
}

func (c *Call) handleCallAccepted(ctx context.Context, msg *protocol.Message) error {
	var sig protocol.Signal
	if err := msg.DecodePayload(&sig); err != nil {
		return err
	}

	if err := c.engine.ApplyRemoteAnswer(ctx, sig.Answer); err != nil {
		return err
	}

	c.log.Info("call accepted", "peer", sig.From)
	c.updateStats(func(s *Stats) { s.RemoteAnswersApplied++ })
	return nil
}

// handleNegotiationNeeded offers again when the gate allows it.
func (c *Call) handleNegotiationNeeded(ctx context.Context) {
	accepted, err := c.gate.Negotiate(ctx, func(ctx context.Context) error {
		if c.peer == "" {
			return ErrNoPeer
		}

		offer, err := c.engine.Renegotiate(ctx)
		if err != nil {
			return err
		}
		return c.signaler.Emit(protocol.EventNegoNeeded, protocol.Signal{To: c.peer, Offer: offer})
	})

	if !accepted {
		c.log.Debug("renegotiation dropped", "state", c.gate.State().String())
		return
	}
	if err != nil {
		c.fail("renegotiate", err)
		return
	}
	c.updateStats(func(s *Stats) { s.Renegotiations++ })
}

// handleNegoNeeded always answers a peer's renegotiation offer.
func (c *Call) handleNegoNeeded(ctx context.Context, msg *protocol.Message) error {
	var sig protocol.Signal
	if err := msg.DecodePayload(&sig); err != nil {
		return err
	}

	answer, err := c.engine.CreateAnswer(ctx, sig.Offer, nil)
	if err != nil {
		return err
	}

	if err := c.signaler.Emit(protocol.EventNegoDone, protocol.Signal{To: sig.From, Answer: answer}); err != nil {
		return err
	}
	c.updateStats(func(s *Stats) { s.RenegotiationAnswers++ })
	return nil
}

func (c *Call) handleNegoFinal(ctx context.Context, msg *protocol.Message) error {
	var sig protocol.Signal
	if err := msg.DecodePayload(&sig); err != nil {
		return err
	}

	if !sig.Answer.Valid() {
		c.log.Debug("discarding incomplete renegotiation answer", "from", sig.From)
		return nil
	}

	if err := c.engine.ApplyRemoteAnswer(ctx, sig.Answer); err != nil {
		return err
	}
	c.updateStats(func(s *Stats) { s.RemoteAnswersApplied++ })
	return nil
}

func (c *Call) handleRemoteCandidate(_ context.Context, msg *protocol.Message) error {
	var sig protocol.Signal
	if err := msg.DecodePayload(&sig); err != nil {
		return err
	}

	if err := c.engine.AddICECandidate(sig.Candidate); err != nil {
		// Candidates racing a transport that does not exist yet are expected.
		if errors.Is(err, session.ErrNoTransport) {
			c.log.Debug("candidate dropped", "err", err)
			return nil
		}
		return err
	}
	c.updateStats(func(s *Stats) { s.CandidatesReceived++ })
	return nil
}

func (c *Call) sendCandidate(raw json.RawMessage) {
	if c.peer == "" {
		c.log.Debug("local candidate without a peer dropped")
		return
	}

	if err := c.signaler.Emit(protocol.EventICECandidate, protocol.Signal{To: c.peer, Candidate: raw}); err != nil {
		c.fail("send candidate", err)
		return
	}
	c.updateStats(func(s *Stats) { s.CandidatesSent++ })
}

func (c *Call) handleStateChange(state webrtc.PeerConnectionState) {
	c.log.Info("connection state changed", "state", state.String())
	c.setState(state.String())
	c.observer.StateChanged(state.String())

	if state == webrtc.PeerConnectionStateConnected {
		c.gate.MarkStable()
		c.updateStats(func(s *Stats) {
			if s.ConnectedAt.IsZero() {
				s.ConnectedAt = time.Now()
			}
		})
		c.observer.Connected(c.peerName())
	}
}

func (c *Call) handleRemoteTrack(ctx context.Context, track *webrtc.TrackRemote) {
	kind := track.Kind().String()
	codec := track.Codec().MimeType

	c.updateStats(func(s *Stats) { s.RemoteTracks++ })
	c.observer.RemoteTrack(kind, codec)

	go func() {
		if err := c.sink.Consume(ctx, track); err != nil {
			c.log.Warn("remote track ended with error", "kind", kind, "err", err)
		}
	}()
}

// capture acquires local media once per call.
func (c *Call) capture(ctx context.Context) (media.Stream, error) {
	if c.stream != nil {
		return c.stream, nil
	}
	stream, err := c.capturer.Capture(ctx)
	if err != nil {
		return nil, err
	}
	c.stream = stream
	return stream, nil
}

func (c *Call) peerName() string {
	if c.peerIdentity != "" {
		return c.peerIdentity
	}
	return c.peer
}

func (c *Call) fail(op string, err error) {
	c.log.Warn("call step failed", "op", op, "err", err)
	c.updateStats(func(s *Stats) { s.Errors++ })
	c.observer.Error(err)
}

func (c *Call) setState(state string) {
	c.updateStats(func(s *Stats) { s.State = state })
}

func (c *Call) updateStats(fn func(*Stats)) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	fn(&c.stats)
}
