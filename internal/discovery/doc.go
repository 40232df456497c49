// Package discovery provides mDNS-based discovery of furnace controllers.
//
// This package implements multicast DNS (mDNS) service discovery to
// automatically locate boiler controllers on the local network. Controllers
// advertise themselves using the "_http._tcp" service type with a
// "furnace-<id>.local" hostname.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Broadcasts mDNS queries on the local network
//  2. Listens for service advertisements
//  3. Filters responses by the controller hostname pattern
//  4. Collects controller information (hostname, IP, id, TXT metadata)
//  5. Returns a list of discovered controllers after the timeout period
//
// # Usage Example
//
//	// Discover controllers with 10-second timeout
//	controllers, err := discovery.Scan(ctx, 10*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, c := range controllers {
//	    fmt.Printf("Found: %s at %s (id: %s)\n", c.Hostname, c.IP, c.ID)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Controllers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can
// run simultaneously without interference.
package discovery
