package discovery

import (
	"fmt"
	"time"
)

// Controller represents a discovered boiler controller on the network.
type Controller struct {
	// ID is the controller identifier from the hostname
	// (e.g., "a1b2c3" from "furnace-a1b2c3.local").
	ID string

	// Hostname is the mDNS hostname (e.g., "furnace-a1b2c3.local")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.1.50")
	IP string

	// Port is the HTTP API port (typically 8000)
	Port int

	// Metadata contains additional mDNS TXT record data
	// Common fields: "version=1.4.2", "model=pellet-25kw"
	Metadata map[string]string

	// DiscoveredAt is when the controller was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the controller
func (c *Controller) String() string {
	return fmt.Sprintf("Furnace controller %s (%s) at %s:%d", c.ID, c.Hostname, c.IP, c.Port)
}

// BaseURL returns the HTTP base URL for the controller's API
func (c *Controller) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.IP, c.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (c *Controller) GetMetadata(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
