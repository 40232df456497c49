package discovery

import (
	"testing"
	"time"
)

func TestController_String(t *testing.T) {
	c := &Controller{
		ID:       "a1b2c3",
		Hostname: "furnace-a1b2c3.local",
		IP:       "192.168.1.50",
		Port:     8000,
	}

	expected := "Furnace controller a1b2c3 (furnace-a1b2c3.local) at 192.168.1.50:8000"
	if c.String() != expected {
		t.Errorf("Controller.String() = %v, want %v", c.String(), expected)
	}
}

func TestController_BaseURL(t *testing.T) {
	tests := []struct {
		name       string
		controller *Controller
		expected   string
	}{
		{
			name: "default API port",
			controller: &Controller{
				IP:   "192.168.1.50",
				Port: 8000,
			},
			expected: "http://192.168.1.50:8000",
		},
		{
			name: "custom port",
			controller: &Controller{
				IP:   "10.0.0.5",
				Port: 8080,
			},
			expected: "http://10.0.0.5:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.controller.BaseURL(); got != tt.expected {
				t.Errorf("Controller.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestController_GetMetadata(t *testing.T) {
	c := &Controller{
		Metadata: map[string]string{
			"version": "1.4.2",
			"model":   "pellet-25kw",
		},
	}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "existing key",
			key:      "version",
			expected: "1.4.2",
		},
		{
			name:     "another existing key",
			key:      "model",
			expected: "pellet-25kw",
		},
		{
			name:     "non-existent key",
			key:      "missing",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.GetMetadata(tt.key); got != tt.expected {
				t.Errorf("Controller.GetMetadata(%v) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestController_GetMetadata_NilMap(t *testing.T) {
	c := &Controller{
		Metadata: nil,
	}

	if got := c.GetMetadata("anything"); got != "" {
		t.Errorf("Controller.GetMetadata() with nil map = %v, want empty string", got)
	}
}

func TestController_DiscoveredAt(t *testing.T) {
	now := time.Now()
	c := &Controller{
		ID:           "a1b2c3",
		DiscoveredAt: now,
	}

	if c.DiscoveredAt != now {
		t.Errorf("Controller.DiscoveredAt = %v, want %v", c.DiscoveredAt, now)
	}
}
