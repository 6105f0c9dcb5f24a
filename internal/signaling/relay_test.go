package signaling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/protocol"
)

func TestForwardedType(t *testing.T) {
	want := map[string]string{
		protocol.EventUserCall:     protocol.EventIncomingCall,
		protocol.EventCallAccepted: protocol.EventCallAccepted,
		protocol.EventNegoNeeded:   protocol.EventNegoNeeded,
		protocol.EventNegoDone:     protocol.EventNegoFinal,
		protocol.EventICECandidate: protocol.EventICECandidate,
	}
	for in, out := range want {
		got, ok := ForwardedType(in)
		require.True(t, ok, in)
		assert.Equal(t, out, got)
	}

	_, ok := ForwardedType(protocol.EventRoomJoin)
	assert.False(t, ok)
}

func TestRestamp_KeepsOtherFieldsVerbatim(t *testing.T) {
	in := json.RawMessage(`{"to":"b","offer":{"type":"offer","sdp":"v=0\r\n"},"extra":[1,2,3]}`)

	to, out, err := restamp(in, "a")
	require.NoError(t, err)
	assert.Equal(t, "b", to)
	assert.JSONEq(t, `{"from":"a","offer":{"type":"offer","sdp":"v=0\r\n"},"extra":[1,2,3]}`, string(out))
}

func TestRestamp_OverridesSpoofedFrom(t *testing.T) {
	_, out, err := restamp(json.RawMessage(`{"to":"b","from":"mallory"}`), "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"a"}`, string(out))
}

func TestRestamp_Errors(t *testing.T) {
	for _, in := range []string{`{}`, `{"to":""}`, `{"to":5}`, `not json`} {
		_, _, err := restamp(json.RawMessage(in), "a")
		assert.Error(t, err, in)
	}

	_, _, err := restamp(json.RawMessage(`{"offer":{}}`), "a")
	assert.ErrorIs(t, err, ErrMissingDestination)
}
