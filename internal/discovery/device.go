package discovery

import (
	"fmt"
	"time"
)

// Device represents a discovered sensor node on the network
type Device struct {
	// Name is the advertised instance name (the configured device name,
	// e.g. "etho_sensor_000")
	Name string

	// Hostname is the mDNS hostname (e.g. "etho_sensor_000.local.")
	Hostname string

	// IP is the IPv4 address (e.g. "192.168.1.42")
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data.
	// Common fields: "id=<mac>", "location=...", "version=..."
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("sensor node %s at %s:%d", d.Name, d.IP, d.Port)
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", d.IP, d.Port)
}

// ID returns the node identifier (MAC address) from the TXT metadata,
// or empty string if not advertised
func (d *Device) ID() string {
	return d.GetMetadata("id")
}

// Location returns the advertised location, or empty string
func (d *Device) Location() string {
	return d.GetMetadata("location")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
