package protocol

import "encoding/json"

// Message is the envelope for every websocket frame exchanged between a
// client and the signaling server.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event names.
const (
	EventRoomJoin   = "room:join"
	EventRoomJoined = "room:joined"
	EventUserJoined = "user:joined"

	EventUserCall     = "user:call"
	EventIncomingCall = "incoming:call"
	EventCallAccepted = "call:accepted"
	EventNegoNeeded   = "peer:nego:needed"
	EventNegoDone     = "peer:nego:done"
	EventNegoFinal    = "peer:nego:final"
	EventICECandidate = "ice:candidate"
)

// JoinPayload is carried by room:join and echoed back in room:joined.
type JoinPayload struct {
	Identity string `json:"identity"`
	Room     string `json:"room"`
}

// PeerJoinedPayload tells a member who the other member of its room is.
type PeerJoinedPayload struct {
	Identity     string `json:"identity"`
	ConnectionID string `json:"connectionId"`
}

// SessionDescription is an SDP offer or answer. The body is opaque to the
// signaling layer.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// Valid reports whether both structural fields are present.
func (d *SessionDescription) Valid() bool {
	return d != nil && d.Type != "" && d.SDP != ""
}

// Signal is the payload of every relayed event. Clients fill To; the server
// strips it and stamps From before forwarding.
type Signal struct {
	To        string              `json:"to,omitempty"`
	From      string              `json:"from,omitempty"`
	Offer     *SessionDescription `json:"offer,omitempty"`
	Answer    *SessionDescription `json:"answer,omitempty"`
	Candidate json.RawMessage     `json:"candidate,omitempty"`
}

// NewMessage marshals payload into a Message of the given type.
func NewMessage(t string, payload any) (*Message, error) {
	if payload == nil {
		return &Message{Type: t}, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: t, Payload: b}, nil
}

// DecodePayload decodes the message payload into the provided value.
func (m *Message) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return ErrEmptyPayload
	}
	return json.Unmarshal(m.Payload, v)
}
