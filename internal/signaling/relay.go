package signaling

import (
	"encoding/json"
	"errors"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/protocol"
)

// ErrMissingDestination is returned for relayed payloads without a "to" field.
var ErrMissingDestination = errors.New("missing destination")

// relayRoutes maps each forwardable inbound event to the event the
// destination receives.
var relayRoutes = map[string]string{
	protocol.EventUserCall:     protocol.EventIncomingCall,
	protocol.EventCallAccepted: protocol.EventCallAccepted,
	protocol.EventNegoNeeded:   protocol.EventNegoNeeded,
	protocol.EventNegoDone:     protocol.EventNegoFinal,
	protocol.EventICECandidate: protocol.EventICECandidate,
}

// ForwardedType returns the event name a relayed message is delivered as.
func ForwardedType(inbound string) (string, bool) {
	t, ok := relayRoutes[inbound]
	return t, ok
}

// restamp removes the "to" field from payload and stamps "from". Every other
// field is carried over untouched.
func restamp(payload json.RawMessage, from string) (to string, out json.RawMessage, err error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", nil, err
	}

	raw, ok := fields["to"]
	if !ok {
		return "", nil, ErrMissingDestination
	}
	if err := json.Unmarshal(raw, &to); err != nil {
		return "", nil, err
	}
	if to == "" {
		return "", nil, ErrMissingDestination
	}

	delete(fields, "to")
	fields["from"], err = json.Marshal(from)
	if err != nil {
		return "", nil, err
	}

	out, err = json.Marshal(fields)
	if err != nil {
		return "", nil, err
	}
	return to, out, nil
}
