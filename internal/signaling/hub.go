package signaling

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/metrics"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/protocol"
)

// DefaultPairDelay is how long a newly joined member waits, after its own
// room:joined acknowledgment, before learning about the peer already in the
// room.
const DefaultPairDelay = 100 * time.Millisecond

// Options configures a Hub.
type Options struct {
	PairDelay time.Duration
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// delivery is a message scheduled for later delivery to a connection.
type delivery struct {
	to  string
	msg *protocol.Message
}

// Hub is the central brain of the signaling server. A single goroutine
// running Run owns the registry and the room directory, so neither needs
// locking.
type Hub struct {
	registry *Registry
	rooms    *Directory

	register   chan *Client
	unregister chan *Client
	inbound    chan *Message
	deferred   chan delivery
	queries    chan func()
	done       chan struct{}

	pairDelay time.Duration
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewHub creates a new Hub instance with a fresh registry and directory.
func NewHub(opts Options) *Hub {
	if opts.PairDelay <= 0 {
		opts.PairDelay = DefaultPairDelay
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Hub{
		registry:   NewRegistry(),
		rooms:      NewDirectory(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *Message),
		deferred:   make(chan delivery),
		queries:    make(chan func()),
		done:       make(chan struct{}),
		pairDelay:  opts.PairDelay,
		metrics:    opts.Metrics,
		log:        opts.Logger.With("component", "hub"),
	}
}

// Metrics returns the hub's counters.
func (h *Hub) Metrics() *metrics.Metrics {
	return h.metrics
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// NewClient wraps a websocket connection in a Client with a fresh
// server-assigned connection ID. The client is not live until registered.
func (h *Hub) NewClient(conn *websocket.Conn) *Client {
	return newClient(h, conn)
}

// Register hands a new connection to the hub. It returns false if the hub
// has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister tells the hub the connection is gone.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch queues an inbound message for processing.
func (h *Hub) Dispatch(msg *Message) bool {
	select {
	case h.inbound <- msg:
		return true
	case <-h.done:
		return false
	}
}

// Stats reports the number of live connections and non-empty rooms.
func (h *Hub) Stats(ctx context.Context) (connections, rooms int, err error) {
	err = h.query(ctx, func() {
		connections = h.registry.Len()
		rooms = h.rooms.Len()
	})
	return connections, rooms, err
}

// Members returns a snapshot of a room's members.
func (h *Hub) Members(ctx context.Context, room string) ([]string, error) {
	var members []string
	err := h.query(ctx, func() {
		members = h.rooms.Members(room)
	})
	return members, err
}

// Identity returns the identity bound to a connection, if any.
func (h *Hub) Identity(ctx context.Context, id string) (identity string, ok bool, err error) {
	err = h.query(ctx, func() {
		identity, ok = h.registry.Identity(id)
	})
	return identity, ok, err
}

// query runs fn on the hub goroutine and waits for it.
func (h *Hub) query(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		fn()
		close(finished)
	}
	select {
	case h.queries <- wrapped:
	case <-h.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the hub's main processing loop. It returns when ctx is done,
// after closing every live client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registry.Connect(client)
			h.metrics.Inc(metrics.EventConnected)
			h.log.Info("client registered", "conn", client.ID, "remote", client.remoteAddr())

		case client := <-h.unregister:
			h.handleDisconnect(client)

		case d := <-h.deferred:
			h.deliver(d.to, d.msg)

		case fn := <-h.queries:
			fn()

		case message := <-h.inbound:
			h.handleMessage(message)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	for _, c := range h.registry.Clients() {
		h.registry.Remove(c.ID)
		h.rooms.LeaveAll(c.ID)
		close(c.Send)
	}
	h.log.Info("hub stopped")
}

func (h *Hub) handleMessage(message *Message) {
	client := message.client
	if _, ok := h.registry.Lookup(client.ID); !ok {
		h.log.Debug("message from unregistered client dropped", "conn", client.ID, "type", message.Type)
		return
	}

	h.log.Debug("message received", "type", message.Type, "conn", client.ID)

	switch message.Type {
	case protocol.EventRoomJoin:
		h.handleJoin(client, message)

	default:
		if _, ok := ForwardedType(message.Type); ok {
			h.relay(client, message)
			return
		}
		h.metrics.Inc(metrics.EventUnknownType)
		h.log.Debug("unknown message type", "type", message.Type, "conn", client.ID)
	}
}

func (h *Hub) handleJoin(client *Client, message *Message) {
	var join protocol.JoinPayload
	if err := message.DecodePayload(&join); err != nil || join.Room == "" || join.Identity == "" {
		h.metrics.Inc(metrics.EventMalformed)
		h.log.Debug("malformed join dropped", "conn", client.ID, "err", err)
		return
	}

	evicted, err := h.registry.Bind(client.ID, join.Identity)
	if err != nil {
		h.log.Debug("join from unknown connection", "conn", client.ID, "err", err)
		return
	}
	if evicted != "" {
		h.log.Warn("identity moved to new connection", "identity", join.Identity, "from", evicted, "to", client.ID)
	}

	members, paired := h.rooms.Join(client.ID, join.Room)
	h.metrics.Inc(metrics.EventJoined)
	h.log.Info("client joined room", "conn", client.ID, "room", join.Room, "identity", join.Identity, "members", len(members))

	h.send(client.ID, protocol.EventRoomJoined, protocol.JoinPayload{
		Identity: join.Identity,
		Room:     join.Room,
	})

	if len(members) > 2 {
		h.metrics.Inc(metrics.EventRoomOverfull)
		h.log.Warn("room has more than two members", "room", join.Room, "members", len(members))
		return
	}
	if !paired {
		return
	}

	other := otherMember(members, client.ID)
	otherIdentity, ok := h.registry.Identity(other)
	if !ok || otherIdentity == "" {
		// Its identity was taken over by a later connection.
		h.log.Debug("peer has no identity, announcing connection id", "conn", other, "room", join.Room)
		otherIdentity = other
	}
	h.metrics.Inc(metrics.EventPaired)

	// The existing member learns about the newcomer right away.
	h.send(other, protocol.EventUserJoined, protocol.PeerJoinedPayload{
		Identity:     join.Identity,
		ConnectionID: client.ID,
	})

	// The newcomer hears about the existing member after the pair delay.
	msg, err := protocol.NewMessage(protocol.EventUserJoined, protocol.PeerJoinedPayload{
		Identity:     otherIdentity,
		ConnectionID: other,
	})
	if err != nil {
		h.log.Error("failed to encode peer notice", "err", err)
		return
	}
	h.schedule(client.ID, msg)
}

// schedule delivers msg to the connection after the pair delay. The timer is
// fire-once; the destination is resolved again when it fires.
func (h *Hub) schedule(to string, msg *protocol.Message) {
	time.AfterFunc(h.pairDelay, func() {
		select {
		case h.deferred <- delivery{to: to, msg: msg}:
		case <-h.done:
		}
	})
}

func (h *Hub) relay(client *Client, message *Message) {
	forwardAs, _ := ForwardedType(message.Type)

	to, payload, err := restamp(message.Payload, client.ID)
	if err != nil {
		h.metrics.Inc(metrics.EventMalformed)
		h.log.Debug("malformed relay payload dropped", "type", message.Type, "conn", client.ID, "err", err)
		return
	}

	if h.deliver(to, &protocol.Message{Type: forwardAs, Payload: payload}) {
		h.metrics.Inc(metrics.EventRelayed)
		h.log.Debug("relayed", "type", message.Type, "as", forwardAs, "from", client.ID, "to", to)
	}
}

func (h *Hub) handleDisconnect(client *Client) {
	if _, ok := h.registry.Remove(client.ID); !ok {
		return
	}
	room, inRoom := h.rooms.LeaveAll(client.ID)
	close(client.Send)

	h.metrics.Inc(metrics.EventDisconnected)
	h.log.Info("client unregistered", "conn", client.ID, "room", room, "in_room", inRoom)
}

func (h *Hub) send(to, msgType string, payload any) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		h.log.Error("failed to encode message", "type", msgType, "err", err)
		return
	}
	h.deliver(to, msg)
}

// deliver hands msg to a live connection without blocking. Messages for
// connections that are gone, or whose outbound buffer is full, are dropped.
func (h *Hub) deliver(to string, msg *protocol.Message) bool {
	target, ok := h.registry.Lookup(to)
	if !ok {
		h.metrics.Inc(metrics.EventDeadDestination)
		h.log.Debug("destination not live, dropping", "type", msg.Type, "to", to)
		return false
	}

	select {
	case target.Send <- msg:
		return true
	default:
		h.metrics.Inc(metrics.EventSendBufferFull)
		h.log.Warn("send buffer full, dropping", "type", msg.Type, "to", to)
		return false
	}
}
