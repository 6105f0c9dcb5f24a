package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SIGNAL_URL", "")
	t.Setenv("STUN_SERVER", "")
	t.Setenv("NEGOTIATION_COOLDOWN", "")
	t.Setenv("TURN_SERVER", "")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, DefaultSTUNServers, cfg.STUNServers)
	assert.Equal(t, DefaultNegotiationCooldown, cfg.NegotiationCooldown)
	assert.True(t, cfg.Audio)
	assert.True(t, cfg.Video)
	assert.Nil(t, cfg.GetTURNServers())
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("SIGNAL_URL", "ws://env.example:8000/ws")
	t.Setenv("ROOM", "from-env")

	cfg, err := Load(Options{ServerURL: "wss://flag.example/ws"})
	require.NoError(t, err)

	assert.Equal(t, "wss://flag.example/ws", cfg.ServerURL)
	assert.Equal(t, "from-env", cfg.Room)
}

func TestLoad_EnvCooldownAndSTUNList(t *testing.T) {
	t.Setenv("NEGOTIATION_COOLDOWN", "250ms")
	t.Setenv("STUN_SERVER", "stun:a.example:3478, stun:b.example:3478")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.NegotiationCooldown)
	assert.Equal(t, []string{"stun:a.example:3478", "stun:b.example:3478"}, cfg.STUNServers)
}

func TestLoad_Rejects(t *testing.T) {
	_, err := Load(Options{ServerURL: "http://example.com"})
	assert.Error(t, err)

	t.Setenv("TURN_SERVER", "")
	_, err = Load(Options{ForceRelay: true})
	assert.Error(t, err)

	t.Setenv("NEGOTIATION_COOLDOWN", "soon")
	_, err = Load(Options{})
	assert.Error(t, err)
}

func TestLoadServer(t *testing.T) {
	t.Setenv("SIGNAL_ADDR", "")
	t.Setenv("PAIR_DELAY", "")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultPairDelay, cfg.PairDelay)

	t.Setenv("SIGNAL_ADDR", ":9000")
	t.Setenv("PAIR_DELAY", "20ms")
	cfg, err = LoadServer()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 20*time.Millisecond, cfg.PairDelay)

	t.Setenv("PAIR_DELAY", "-1s")
	_, err = LoadServer()
	assert.Error(t, err)
}
