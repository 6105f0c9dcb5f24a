package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Default configuration values
const (
	DefaultServerURL           = "ws://localhost:8000/ws"
	DefaultNegotiationCooldown = time.Second
)

// DefaultSTUNServers are the public STUN servers used when none are given.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:global.stun.twilio.com:3478",
}

// Config holds client configuration
type Config struct {
	// ServerURL is the signaling server websocket endpoint
	ServerURL string

	// Identity and Room announced in room:join
	Identity string
	Room     string

	// ICE servers for WebRTC
	STUNServers []string
	TURNServer  string
	TURNUser    string
	TURNPass    string
	ForceRelay  bool

	// NegotiationCooldown is the minimum spacing between renegotiation offers
	NegotiationCooldown time.Duration

	// AutoCall places the call as soon as a peer shows up
	AutoCall bool

	// Media kinds to capture
	Audio bool
	Video bool

	// RecordDir receives remote media when set
	RecordDir string
}

// Options for loading config with CLI flag overrides
type Options struct {
	ServerURL           string
	Identity            string
	Room                string
	STUNServer          string
	TURNServer          string
	TURNUser            string
	TURNPass            string
	ForceRelay          bool
	NegotiationCooldown time.Duration
	AutoCall            bool
	NoAudio             bool
	NoVideo             bool
	RecordDir           string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	serverURL := firstNonEmpty(opts.ServerURL, os.Getenv("SIGNAL_URL"), DefaultServerURL)
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be ws or wss", serverURL)
	}

	stunServers := DefaultSTUNServers
	if raw := firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER")); raw != "" {
		stunServers = splitList(raw)
	}

	cooldown := opts.NegotiationCooldown
	if cooldown <= 0 {
		if raw := os.Getenv("NEGOTIATION_COOLDOWN"); raw != "" {
			cooldown, err = time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid NEGOTIATION_COOLDOWN: %w", err)
			}
		}
	}
	if cooldown <= 0 {
		cooldown = DefaultNegotiationCooldown
	}

	cfg := &Config{
		ServerURL:           serverURL,
		Identity:            firstNonEmpty(opts.Identity, os.Getenv("IDENTITY")),
		Room:                firstNonEmpty(opts.Room, os.Getenv("ROOM")),
		STUNServers:         stunServers,
		TURNServer:          firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER")),
		TURNUser:            firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME")),
		TURNPass:            firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD")),
		ForceRelay:          opts.ForceRelay,
		NegotiationCooldown: cooldown,
		AutoCall:            opts.AutoCall,
		Audio:               !opts.NoAudio,
		Video:               !opts.NoVideo,
		RecordDir:           opts.RecordDir,
	}

	if cfg.ForceRelay && cfg.TURNServer == "" {
		return nil, fmt.Errorf("cannot force relay mode without TURN server configured")
	}

	return cfg, nil
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
