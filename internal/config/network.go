package config

import (
	"net"
	"strings"
)

// Carrier-grade NAT range, also used by Cloudflare WARP and Tailscale.
var cgnatBlock = mustCIDR("100.64.0.0/10")

// vpnNameHints are interface name fragments of tunnels that usually break
// direct peer-to-peer paths.
var vpnNameHints = []string{"tun", "tap", "wg", "ppp", "warp"}

// NetInterface is the part of a network interface the relay heuristic
// looks at.
type NetInterface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []net.IP
}

// ShouldForceRelay reports whether the host looks like it sits behind a VPN
// or CGNAT, where TURN is the only reliable path.
func ShouldForceRelay() bool {
	ifaces, err := systemInterfaces()
	if err != nil {
		return false
	}
	return restrictedNetwork(ifaces)
}

func restrictedNetwork(ifaces []NetInterface) bool {
	for _, iface := range ifaces {
		if !iface.Up || iface.Loopback {
			continue
		}

		name := strings.ToLower(iface.Name)
		for _, hint := range vpnNameHints {
			if strings.Contains(name, hint) {
				return true
			}
		}

		for _, ip := range iface.Addrs {
			if cgnatBlock.Contains(ip) {
				return true
			}
		}
	}
	return false
}

func systemInterfaces() ([]NetInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]NetInterface, 0, len(ifaces))
	for _, iface := range ifaces {
		ni := NetInterface{
			Name:     iface.Name,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
		}

		addrs, err := iface.Addrs()
		if err == nil {
			for _, addr := range addrs {
				switch v := addr.(type) {
				case *net.IPNet:
					ni.Addrs = append(ni.Addrs, v.IP)
				case *net.IPAddr:
					ni.Addrs = append(ni.Addrs, v.IP)
				}
			}
		}
		out = append(out, ni)
	}
	return out, nil
}

func mustCIDR(s string) *net.IPNet {
	_, block, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return block
}
