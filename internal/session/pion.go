package session

import (
	"log/slog"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/config"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/logging"
)

// NewAPI builds a pion API with the default codecs and interceptors, routing
// pion's internal logs through logger.
func NewAPI(logger *slog.Logger) (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, wrapError("register codecs", err, "media engine")
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return nil, wrapError("register interceptors", err, "interceptor registry")
	}

	se := webrtc.SettingEngine{
		LoggerFactory: &logging.PionFactory{Logger: logger},
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(se),
	), nil
}

// ICEConfiguration centralizes STUN and TURN server configuration.
func ICEConfiguration(cfg *config.Config) webrtc.Configuration {
	iceServers := []webrtc.ICEServer{{URLs: cfg.STUNServers}}

	if turnServers := cfg.GetTURNServers(); turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	policy := webrtc.ICETransportPolicyAll
	if cfg.ForceRelay {
		policy = webrtc.ICETransportPolicyRelay
	}

	return webrtc.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	}
}

// NewPionFactory returns a Factory creating pion peer connections.
func NewPionFactory(api *webrtc.API, cfg webrtc.Configuration) Factory {
	return func(events Events) (Transport, error) {
		pc, err := api.NewPeerConnection(cfg)
		if err != nil {
			return nil, err
		}

		if events.NegotiationNeeded != nil {
			pc.OnNegotiationNeeded(events.NegotiationNeeded)
		}
		if events.ConnectionStateChange != nil {
			pc.OnConnectionStateChange(events.ConnectionStateChange)
		}
		if events.Track != nil {
			pc.OnTrack(events.Track)
		}
		if events.ICECandidate != nil {
			pc.OnICECandidate(func(c *webrtc.ICECandidate) {
				if c == nil {
					return
				}
				events.ICECandidate(c.ToJSON())
			})
		}

		return &pionTransport{pc: pc}, nil
	}
}

type pionTransport struct {
	pc *webrtc.PeerConnection
}

func (t *pionTransport) CreateOffer() (webrtc.SessionDescription, error) {
	return t.pc.CreateOffer(nil)
}

func (t *pionTransport) CreateAnswer() (webrtc.SessionDescription, error) {
	return t.pc.CreateAnswer(nil)
}

func (t *pionTransport) SetLocalDescription(d webrtc.SessionDescription) error {
	return t.pc.SetLocalDescription(d)
}

func (t *pionTransport) SetRemoteDescription(d webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(d)
}

func (t *pionTransport) LocalDescription() *webrtc.SessionDescription {
	return t.pc.LocalDescription()
}

func (t *pionTransport) RemoteDescription() *webrtc.SessionDescription {
	return t.pc.RemoteDescription()
}

func (t *pionTransport) AddTrack(track webrtc.TrackLocal) error {
	sender, err := t.pc.AddTrack(track)
	if err != nil {
		return err
	}

	// RTCP has to be read for the interceptors to run.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return nil
}

func (t *pionTransport) SenderTracks() []webrtc.TrackLocal {
	var tracks []webrtc.TrackLocal
	for _, s := range t.pc.GetSenders() {
		if track := s.Track(); track != nil {
			tracks = append(tracks, track)
		}
	}
	return tracks
}

func (t *pionTransport) AddICECandidate(c webrtc.ICECandidateInit) error {
	return t.pc.AddICECandidate(c)
}

func (t *pionTransport) ConnectionState() webrtc.PeerConnectionState {
	return t.pc.ConnectionState()
}

func (t *pionTransport) Close() error {
	return t.pc.Close()
}
