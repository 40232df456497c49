package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for controllers and application preferences.
type Registry struct {
	Version     int                    `yaml:"version"`
	Controllers map[string]*Controller `yaml:"controllers,omitempty"` // Keyed by controller id
	Preferences *Preferences           `yaml:"preferences,omitempty"`
}

// Controller represents user-defined metadata for a single boiler controller.
// This is keyed by the controller's id in the Registry.
type Controller struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastIP   string    `yaml:"last_ip,omitempty"`   // Last known IP address
	LastPort int       `yaml:"last_port,omitempty"` // Last known API port
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time

	// SensorLabels maps sensor channel names to user-defined display labels
	// (e.g., "cwu_temp" -> "Hot water tank"). Purely client-side, the
	// controller itself only knows the channel names.
	SensorLabels map[string]string `yaml:"sensor_labels,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover      bool   `yaml:"auto_discover"`                // Enable automatic mDNS discovery on startup
	DiscoverTimeout   int    `yaml:"discover_timeout"`             // mDNS discovery timeout in seconds
	PollIntervalMS    int    `yaml:"poll_interval_ms"`             // Dashboard state poll interval in milliseconds
	DefaultController string `yaml:"default_controller,omitempty"` // Controller id to connect to when none is given
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Controllers: make(map[string]*Controller),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
			PollIntervalMS:  1000,
		},
	}
}

// GetController retrieves controller metadata by id.
// Returns nil if the controller doesn't exist in the registry.
func (r *Registry) GetController(id string) *Controller {
	return r.Controllers[id]
}

// EnsureController ensures a controller entry exists in the registry.
// If the controller doesn't exist, creates a new entry with default values.
// Returns the entry (existing or newly created).
func (r *Registry) EnsureController(id string) *Controller {
	if r.Controllers == nil {
		r.Controllers = make(map[string]*Controller)
	}

	if c, exists := r.Controllers[id]; exists {
		return c
	}

	c := &Controller{
		SensorLabels: make(map[string]string),
	}
	r.Controllers[id] = c
	return c
}

// UpdateControllerLastSeen updates the last seen timestamp and address for a controller.
func (r *Registry) UpdateControllerLastSeen(id, ip string, port int) {
	c := r.EnsureController(id)
	c.LastSeen = time.Now()
	c.LastIP = ip
	c.LastPort = port
}

// SetSensorLabel sets or updates a sensor display label for a controller.
func (r *Registry) SetSensorLabel(id, sensor, label string) {
	c := r.EnsureController(id)

	if c.SensorLabels == nil {
		c.SensorLabels = make(map[string]string)
	}

	if label == "" {
		delete(c.SensorLabels, sensor)
		return
	}
	c.SensorLabels[sensor] = label
}

// SetControllerNickname sets a user-friendly nickname for a controller.
func (r *Registry) SetControllerNickname(id, nickname string) {
	c := r.EnsureController(id)
	c.Nickname = nickname
}

// PollInterval returns the configured poll interval as a duration,
// falling back to the default when unset or nonsensical.
func (p *Preferences) PollInterval() time.Duration {
	if p == nil || p.PollIntervalMS < 100 {
		return time.Second
	}
	return time.Duration(p.PollIntervalMS) * time.Millisecond
}
