package session

import "github.com/pion/webrtc/v4"

// Transport is the peer connection primitive the engine drives. The pion
// adapter in this package is the production implementation.
type Transport interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	LocalDescription() *webrtc.SessionDescription
	RemoteDescription() *webrtc.SessionDescription

	AddTrack(webrtc.TrackLocal) error
	// SenderTracks returns the local tracks currently attached.
	SenderTracks() []webrtc.TrackLocal

	AddICECandidate(webrtc.ICECandidateInit) error
	ConnectionState() webrtc.PeerConnectionState
	Close() error
}

// Events are the callbacks a Transport reports through. Any may be nil.
type Events struct {
	NegotiationNeeded     func()
	ConnectionStateChange func(webrtc.PeerConnectionState)
	Track                 func(*webrtc.TrackRemote, *webrtc.RTPReceiver)
	// ICECandidate is not called for the end-of-gathering marker.
	ICECandidate func(webrtc.ICECandidateInit)
}

// Factory creates a fresh transport wired to events.
type Factory func(events Events) (Transport, error)
