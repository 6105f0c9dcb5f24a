package signaling

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/metrics"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/protocol"
)

const testPairDelay = 100 * time.Millisecond

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(Options{
		PairDelay: testPairDelay,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h
}

func connect(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := h.NewClient(nil)
	require.True(t, h.Register(c))
	return c
}

func dispatch(t *testing.T, h *Hub, c *Client, msgType string, payload any) {
	t.Helper()
	msg, err := protocol.NewMessage(msgType, payload)
	require.NoError(t, err)
	require.True(t, h.Dispatch(&Message{Message: *msg, client: c}))
}

func join(t *testing.T, h *Hub, c *Client, identity, room string) {
	t.Helper()
	dispatch(t, h, c, protocol.EventRoomJoin, protocol.JoinPayload{Identity: identity, Room: room})
}

func recv(t *testing.T, c *Client) *protocol.Message {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message on %s", c.ID)
		return nil
	}
}

func expectNone(t *testing.T, c *Client, wait time.Duration) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message %s: %s", msg.Type, msg.Payload)
	case <-time.After(wait):
	}
}

// barrier waits until every message dispatched so far has been handled.
func barrier(t *testing.T, h *Hub) {
	t.Helper()
	_, _, err := h.Stats(context.Background())
	require.NoError(t, err)
}

func decode[T any](t *testing.T, msg *protocol.Message) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg.Payload, &v))
	return v
}

func TestHub_PairsTwoMembersWithDelayedNoticeToNewcomer(t *testing.T) {
	h := startHub(t)
	a := connect(t, h)
	b := connect(t, h)

	join(t, h, a, "a@x.com", "r1")
	ack := recv(t, a)
	require.Equal(t, protocol.EventRoomJoined, ack.Type)
	assert.Equal(t, protocol.JoinPayload{Identity: "a@x.com", Room: "r1"}, decode[protocol.JoinPayload](t, ack))

	time.Sleep(50 * time.Millisecond)
	join(t, h, b, "b@x.com", "r1")

	// Existing member is told right away.
	notice := recv(t, a)
	require.Equal(t, protocol.EventUserJoined, notice.Type)
	assert.Equal(t, protocol.PeerJoinedPayload{Identity: "b@x.com", ConnectionID: b.ID}, decode[protocol.PeerJoinedPayload](t, notice))

	// Newcomer sees its own ack first, then the peer after the pair delay.
	ack = recv(t, b)
	require.Equal(t, protocol.EventRoomJoined, ack.Type)
	ackAt := time.Now()
	expectNone(t, b, testPairDelay/2)

	notice = recv(t, b)
	require.Equal(t, protocol.EventUserJoined, notice.Type)
	assert.GreaterOrEqual(t, time.Since(ackAt), testPairDelay*8/10)
	assert.Equal(t, protocol.PeerJoinedPayload{Identity: "a@x.com", ConnectionID: a.ID}, decode[protocol.PeerJoinedPayload](t, notice))

	members, err := h.Members(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, members)
	assert.Equal(t, uint64(1), h.Metrics().Get(metrics.EventPaired))
}

func TestHub_RelaysEveryRouteWithSenderStamped(t *testing.T) {
	h := startHub(t)
	a := connect(t, h)
	b := connect(t, h)

	offer := &protocol.SessionDescription{Type: "offer", SDP: "v=0 o1"}
	answer := &protocol.SessionDescription{Type: "answer", SDP: "v=0 a1"}
	candidate := json.RawMessage(`{"candidate":"candidate:1 1 udp 2130706431 10.0.0.1 5000 typ host","sdpMid":"0"}`)

	cases := []struct {
		in, out string
		signal  protocol.Signal
	}{
		{protocol.EventUserCall, protocol.EventIncomingCall, protocol.Signal{To: b.ID, Offer: offer}},
		{protocol.EventCallAccepted, protocol.EventCallAccepted, protocol.Signal{To: b.ID, Answer: answer}},
		{protocol.EventNegoNeeded, protocol.EventNegoNeeded, protocol.Signal{To: b.ID, Offer: offer}},
		{protocol.EventNegoDone, protocol.EventNegoFinal, protocol.Signal{To: b.ID, Answer: answer}},
		{protocol.EventICECandidate, protocol.EventICECandidate, protocol.Signal{To: b.ID, Candidate: candidate}},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			dispatch(t, h, a, tc.in, tc.signal)

			got := recv(t, b)
			require.Equal(t, tc.out, got.Type)

			fields := decode[map[string]json.RawMessage](t, got)
			assert.NotContains(t, fields, "to")

			sig := decode[protocol.Signal](t, got)
			assert.Equal(t, a.ID, sig.From)
			assert.Equal(t, tc.signal.Offer, sig.Offer)
			assert.Equal(t, tc.signal.Answer, sig.Answer)
			if tc.signal.Candidate != nil {
				assert.JSONEq(t, string(tc.signal.Candidate), string(sig.Candidate))
			}
		})
	}

	expectNone(t, a, 20*time.Millisecond)
}

func TestHub_DropsMessagesForDeadDestinations(t *testing.T) {
	h := startHub(t)
	a := connect(t, h)

	dispatch(t, h, a, protocol.EventUserCall, protocol.Signal{
		To:    "no-such-connection",
		Offer: &protocol.SessionDescription{Type: "offer", SDP: "x"},
	})
	barrier(t, h)

	assert.Equal(t, uint64(1), h.Metrics().Get(metrics.EventDeadDestination))
	expectNone(t, a, 20*time.Millisecond)
}

func TestHub_DropsMalformedPayloads(t *testing.T) {
	h := startHub(t)
	a := connect(t, h)

	join(t, h, a, "", "r1")
	join(t, h, a, "a@x.com", "")
	dispatch(t, h, a, protocol.EventUserCall, protocol.Signal{Offer: &protocol.SessionDescription{Type: "offer", SDP: "x"}})
	require.True(t, h.Dispatch(&Message{Message: protocol.Message{Type: protocol.EventICECandidate, Payload: json.RawMessage(`[1,2]`)}, client: a}))
	dispatch(t, h, a, "room:leave", nil)
	barrier(t, h)

	assert.Equal(t, uint64(4), h.Metrics().Get(metrics.EventMalformed))
	assert.Equal(t, uint64(1), h.Metrics().Get(metrics.EventUnknownType))
	expectNone(t, a, 20*time.Millisecond)
}

func TestHub_DisconnectRemovesMembershipAndIdentity(t *testing.T) {
	h := startHub(t)
	a := connect(t, h)
	b := connect(t, h)

	join(t, h, a, "a@x.com", "r1")
	recv(t, a)
	join(t, h, b, "b@x.com", "r1")
	recv(t, a)
	recv(t, b)

	h.Unregister(a)
	barrier(t, h)

	members, err := h.Members(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, members)

	_, ok, err := h.Identity(context.Background(), a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, open := <-a.Send
	assert.False(t, open, "send channel should be closed on disconnect")

	// A second unregister for the same connection is harmless.
	h.Unregister(a)
	barrier(t, h)
}

func TestHub_DelayedNoticeToDisconnectedNewcomerIsDropped(t *testing.T) {
	h := startHub(t)
	a := connect(t, h)
	b := connect(t, h)

	join(t, h, a, "a@x.com", "r1")
	recv(t, a)
	join(t, h, b, "b@x.com", "r1")
	recv(t, a)
	recv(t, b)
	h.Unregister(b)

	time.Sleep(testPairDelay * 2)
	barrier(t, h)

	assert.Equal(t, uint64(1), h.Metrics().Get(metrics.EventDeadDestination))
}

func TestHub_ThirdJoinerIsAcceptedButNotPaired(t *testing.T) {
	h := startHub(t)
	a := connect(t, h)
	b := connect(t, h)
	c := connect(t, h)

	join(t, h, a, "a@x.com", "r1")
	recv(t, a)
	join(t, h, b, "b@x.com", "r1")
	recv(t, a)
	recv(t, b)
	recv(t, b)

	join(t, h, c, "c@x.com", "r1")
	ack := recv(t, c)
	assert.Equal(t, protocol.EventRoomJoined, ack.Type)

	expectNone(t, a, testPairDelay*2)
	expectNone(t, b, 10*time.Millisecond)
	expectNone(t, c, 10*time.Millisecond)
	assert.Equal(t, uint64(1), h.Metrics().Get(metrics.EventRoomOverfull))
}

func TestHub_RejoinDoesNotPairAgain(t *testing.T) {
	h := startHub(t)
	a := connect(t, h)
	b := connect(t, h)

	join(t, h, a, "a@x.com", "r1")
	recv(t, a)
	join(t, h, b, "b@x.com", "r1")
	recv(t, a)
	recv(t, b)
	recv(t, b)

	join(t, h, b, "b2@x.com", "r1")
	ack := recv(t, b)
	assert.Equal(t, protocol.JoinPayload{Identity: "b2@x.com", Room: "r1"}, decode[protocol.JoinPayload](t, ack))
	expectNone(t, a, testPairDelay*2)

	identity, ok, err := h.Identity(context.Background(), b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b2@x.com", identity)
}

func TestHub_EvictedPeerIsAnnouncedByConnectionID(t *testing.T) {
	h := startHub(t)
	a := connect(t, h)
	b := connect(t, h)
	c := connect(t, h)

	join(t, h, a, "a@x.com", "r1")
	recv(t, a)
	// c takes over a's identity from another room.
	join(t, h, c, "a@x.com", "r2")
	recv(t, c)

	join(t, h, b, "b@x.com", "r1")
	recv(t, a)
	recv(t, b)
	notice := recv(t, b)
	require.Equal(t, protocol.EventUserJoined, notice.Type)
	assert.Equal(t, protocol.PeerJoinedPayload{Identity: a.ID, ConnectionID: a.ID}, decode[protocol.PeerJoinedPayload](t, notice))
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h := NewHub(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	a := h.NewClient(nil)
	require.True(t, h.Register(a))
	cancel()
	<-h.Done()

	_, open := <-a.Send
	assert.False(t, open)
	assert.False(t, h.Register(h.NewClient(nil)))
	assert.False(t, h.Dispatch(&Message{client: a}))
}
