package signaling

import "github.com/ImanSamantaCoder/Video-calling-APP/internal/protocol"

// Message is an inbound frame together with the connection that sent it.
type Message struct {
	protocol.Message

	// client is the client that sent the message.
	// It's used internally by the Hub and not sent over JSON.
	client *Client
}
