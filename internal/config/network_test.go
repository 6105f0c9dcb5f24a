package config

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestrictedNetwork(t *testing.T) {
	lan := NetInterface{Name: "eth0", Up: true, Addrs: []net.IP{net.ParseIP("192.168.1.20")}}

	tests := []struct {
		name   string
		ifaces []NetInterface
		want   bool
	}{
		{"plain lan", []NetInterface{lan}, false},
		{"wireguard", []NetInterface{lan, {Name: "wg0", Up: true}}, true},
		{"down tunnel ignored", []NetInterface{lan, {Name: "tun0"}}, false},
		{"loopback ignored", []NetInterface{{Name: "lo", Up: true, Loopback: true, Addrs: []net.IP{net.ParseIP("100.64.0.1")}}}, false},
		{"cgnat address", []NetInterface{{Name: "en0", Up: true, Addrs: []net.IP{net.ParseIP("100.100.1.2")}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, restrictedNetwork(tt.ifaces))
		})
	}
}
