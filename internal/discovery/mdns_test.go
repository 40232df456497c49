package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantID   string
		wantIP   string
		wantPort int
	}{
		{
			name: "valid controller with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "furnace-a1b2c3.local.",
				Port:     8000,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				Text:     []string{"version=1.4.2", "model=pellet-25kw"},
			},
			wantNil:  false,
			wantID:   "a1b2c3",
			wantIP:   "192.168.1.50",
			wantPort: 8000,
		},
		{
			name: "valid controller without trailing dot",
			entry: &zeroconf.ServiceEntry{
				HostName: "furnace-boiler01.local",
				Port:     8000,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
				Text:     []string{},
			},
			wantNil:  false,
			wantID:   "boiler01",
			wantIP:   "10.0.0.5",
			wantPort: 8000,
		},
		{
			name: "valid controller with custom port",
			entry: &zeroconf.ServiceEntry{
				HostName: "furnace-attic.local",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.100")},
			},
			wantNil:  false,
			wantID:   "attic",
			wantIP:   "192.168.1.100",
			wantPort: 8080,
		},
		{
			name: "no port specified (should default to the API port)",
			entry: &zeroconf.ServiceEntry{
				HostName: "furnace-main.local",
				Port:     0,
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantNil:  false,
			wantID:   "main",
			wantIP:   "172.16.0.1",
			wantPort: 8000,
		},
		{
			name: "unrelated device (wrong hostname pattern)",
			entry: &zeroconf.ServiceEntry{
				HostName: "someotherdevice.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "empty hostname",
			entry: &zeroconf.ServiceEntry{
				HostName: "",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "furnace-a1b2c3.local",
				Port:     8000,
				AddrIPv4: []net.IP{},
				AddrIPv6: []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only controller",
			entry: &zeroconf.ServiceEntry{
				HostName: "furnace-cellar.local",
				Port:     8000,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantNil:  false,
			wantID:   "cellar",
			wantIP:   "fe80::1",
			wantPort: 8000,
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				HostName: "furnace-garage.local",
				Port:     8000,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.51")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantNil:  false,
			wantID:   "garage",
			wantIP:   "192.168.1.51",
			wantPort: 8000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if c != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", c)
				}
				return
			}

			if c == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil controller")
			}

			if c.ID != tt.wantID {
				t.Errorf("controller.ID = %v, want %v", c.ID, tt.wantID)
			}

			if c.IP != tt.wantIP {
				t.Errorf("controller.IP = %v, want %v", c.IP, tt.wantIP)
			}

			if c.Port != tt.wantPort {
				t.Errorf("controller.Port = %v, want %v", c.Port, tt.wantPort)
			}

			if c.Hostname != tt.entry.HostName {
				t.Errorf("controller.Hostname = %v, want %v", c.Hostname, tt.entry.HostName)
			}

			// Check that DiscoveredAt is recent (within last second)
			if time.Since(c.DiscoveredAt) > time.Second {
				t.Errorf("controller.DiscoveredAt is not recent: %v", c.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		HostName: "furnace-a1b2c3.local",
		Port:     8000,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
		Text:     []string{"version=1.4.2", "model=pellet-25kw", "flag", "api=v1"},
	}

	c := scanner.parseServiceEntry(entry)
	if c == nil {
		t.Fatal("parseServiceEntry() = nil, want controller")
	}

	expectedMetadata := map[string]string{
		"version": "1.4.2",
		"model":   "pellet-25kw",
		"flag":    "", // Key without value
		"api":     "v1",
	}

	if len(c.Metadata) != len(expectedMetadata) {
		t.Errorf("controller.Metadata has %d entries, want %d", len(c.Metadata), len(expectedMetadata))
	}

	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := c.Metadata[key]; !ok {
			t.Errorf("controller.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("controller.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestHostPattern(t *testing.T) {
	tests := []struct {
		hostname    string
		shouldMatch bool
		id          string
	}{
		{"furnace-a1b2c3.local", true, "a1b2c3"},
		{"furnace-a1b2c3.local.", true, "a1b2c3"},
		{"furnace-boiler01.local", true, "boiler01"},
		{"furnace-1.local", true, "1"},
		{"furnace-MAIN.local", true, "MAIN"},
		{"Furnace-a1b2c3.local", false, ""}, // uppercase prefix
		{"furnace-.local", false, ""},       // no id
		{"furnace-a_b.local", false, ""},    // invalid id character
		{"somedevice.local", false, ""},     // wrong prefix
		{"furnace-a1b2c3", false, ""},       // missing .local
		{"", false, ""},                     // empty
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			matches := hostPattern.FindStringSubmatch(tt.hostname)

			if tt.shouldMatch {
				if matches == nil || len(matches) < 2 {
					t.Errorf("hostPattern did not match %q", tt.hostname)
				} else if matches[1] != tt.id {
					t.Errorf("hostPattern matched %q with id %q, want %q", tt.hostname, matches[1], tt.id)
				}
			} else {
				if matches != nil {
					t.Errorf("hostPattern matched %q, want no match", tt.hostname)
				}
			}
		})
	}
}
