package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(EventRoomJoin, JoinPayload{Identity: "a@x.com", Room: "r1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"identity":"a@x.com","room":"r1"}`, string(msg.Payload))

	var got JoinPayload
	require.NoError(t, msg.DecodePayload(&got))
	assert.Equal(t, "r1", got.Room)
}

func TestNewMessage_NilPayload(t *testing.T) {
	msg, err := NewMessage(EventCallAccepted, nil)
	require.NoError(t, err)
	assert.Empty(t, msg.Payload)
	assert.ErrorIs(t, msg.DecodePayload(&Signal{}), ErrEmptyPayload)
}

func TestSessionDescriptionValid(t *testing.T) {
	var nilDesc *SessionDescription
	assert.False(t, nilDesc.Valid())
	assert.False(t, (&SessionDescription{Type: "answer"}).Valid())
	assert.False(t, (&SessionDescription{SDP: "v=0"}).Valid())
	assert.True(t, (&SessionDescription{Type: "answer", SDP: "v=0"}).Valid())
}
