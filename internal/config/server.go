package config

import (
	"fmt"
	"os"
	"time"
)

const (
	DefaultListenAddr = ":8000"
	DefaultPairDelay  = 100 * time.Millisecond
)

// ServerConfig holds signaling server configuration.
type ServerConfig struct {
	// ListenAddr is the single port the relay listens on
	ListenAddr string

	// PairDelay postpones the newcomer's user:joined notice
	PairDelay time.Duration

	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout time.Duration
}

// LoadServer reads server configuration from the environment.
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{
		ListenAddr:      firstNonEmpty(os.Getenv("SIGNAL_ADDR"), DefaultListenAddr),
		PairDelay:       DefaultPairDelay,
		ShutdownTimeout: 5 * time.Second,
	}

	if raw := os.Getenv("PAIR_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PAIR_DELAY: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid PAIR_DELAY: must not be negative")
		}
		cfg.PairDelay = d
	}

	return cfg, nil
}
