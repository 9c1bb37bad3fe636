package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "node with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "etho_sensor_000"},
				HostName:      "etho_sensor_000.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.42")},
				Text:          []string{"id=AA:BB:CC:DD:EE:FF", "location=lab"},
			},
			wantNil:  false,
			wantName: "etho_sensor_000",
			wantIP:   "192.168.1.42",
			wantPort: 80,
		},
		{
			name: "node with custom port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "incubator_3"},
				HostName:      "incubator_3.local.",
				Port:          8080,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantNil:  false,
			wantName: "incubator_3",
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name: "no port specified (defaults to 80)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "etho_sensor_001"},
				Port:          0,
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantNil:  false,
			wantName: "etho_sensor_001",
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name: "IPv6 only falls back to IPv6 address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "etho_sensor_002"},
				Port:          80,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantNil:  false,
			wantName: "etho_sensor_002",
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name: "entry without address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				Port:          80,
			},
			wantNil: true,
		},
		{
			name: "entry without instance name",
			entry: &zeroconf.ServiceEntry{
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want device")
			}
			if device.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", device.Name, tt.wantName)
			}
			if device.IP != tt.wantIP {
				t.Errorf("IP = %q, want %q", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", device.Port, tt.wantPort)
			}
		})
	}
}

func TestScanner_parseServiceEntryMetadata(t *testing.T) {
	scanner := NewScanner()
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "etho_sensor_000"},
		Port:          80,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.42")},
		Text:          []string{"id=AA:BB:CC:DD:EE:FF", "location=lab", "flag"},
	}

	device := scanner.parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil")
	}
	if got := device.ID(); got != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("ID() = %q", got)
	}
	if got := device.Location(); got != "lab" {
		t.Errorf("Location() = %q", got)
	}
	if got := device.GetMetadata("flag"); got != "" {
		t.Errorf("GetMetadata(flag) = %q, want empty value", got)
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}
}

func TestDeviceBaseURL(t *testing.T) {
	d := &Device{Name: "etho_sensor_000", IP: "192.168.1.42", Port: 8080}
	if got := d.BaseURL(); got != "http://192.168.1.42:8080" {
		t.Errorf("BaseURL() = %q", got)
	}
}
