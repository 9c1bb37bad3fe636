package agent

import (
	"context"
	"net"
	"time"
)

const (
	networkWaitBudget = 30 * time.Second
	networkWaitStep   = 100 * time.Millisecond
)

// localIP returns the first non-loopback IPv4 address, or "" when the host
// has none yet.
func localIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return ""
}

// macAddress returns the hardware address of the first up non-loopback
// interface, or "" when none is available.
func macAddress() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) > 0 {
			return iface.HardwareAddr.String()
		}
	}
	return ""
}

// waitForNetwork polls until a non-loopback address appears, the budget
// runs out, or the context is cancelled. It returns the address found,
// or "" if the host still has none.
func waitForNetwork(ctx context.Context) string {
	deadline := time.Now().Add(networkWaitBudget)

	for {
		if ip := localIP(); ip != "" {
			return ip
		}
		if time.Now().After(deadline) {
			return ""
		}
		select {
		case <-ctx.Done():
			return ""
		case <-time.After(networkWaitStep):
		}
	}
}
