package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	// Should not be empty
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	// Should contain the app name
	if !strings.Contains(configDir, "furnace-panel") {
		t.Errorf("GetConfigDir() = %v, should contain 'furnace-panel'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	// Should end with config.yaml
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Logf("Config path: %s", configPath)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Controllers == nil {
		t.Error("NewRegistry().Controllers should not be nil")
	}

	if reg.Preferences == nil {
		t.Error("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.AutoDiscover != true {
		t.Error("NewRegistry().Preferences.AutoDiscover should be true by default")
	}

	if reg.Preferences.DiscoverTimeout != 10 {
		t.Errorf("NewRegistry().Preferences.DiscoverTimeout = %v, want 10", reg.Preferences.DiscoverTimeout)
	}

	if reg.Preferences.PollInterval() != time.Second {
		t.Errorf("default poll interval = %v, want 1s", reg.Preferences.PollInterval())
	}
}

func TestRegistryEnsureController(t *testing.T) {
	reg := NewRegistry()

	// First call should create the entry
	c1 := reg.EnsureController("a1b2c3")
	if c1 == nil {
		t.Fatal("EnsureController() returned nil")
	}

	// Second call should return same entry
	c2 := reg.EnsureController("a1b2c3")
	if c1 != c2 {
		t.Error("EnsureController() should return same instance for same id")
	}

	// Different id should create new entry
	c3 := reg.EnsureController("boiler01")
	if c1 == c3 {
		t.Error("EnsureController() should create new instance for different id")
	}
}

func TestRegistryUpdateControllerLastSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateControllerLastSeen("a1b2c3", "192.168.1.50", 8000)
	after := time.Now()

	c := reg.GetController("a1b2c3")
	if c == nil {
		t.Fatal("Controller should exist after UpdateControllerLastSeen()")
	}

	if c.LastIP != "192.168.1.50" {
		t.Errorf("LastIP = %v, want 192.168.1.50", c.LastIP)
	}

	if c.LastPort != 8000 {
		t.Errorf("LastPort = %v, want 8000", c.LastPort)
	}

	if c.LastSeen.Before(before) || c.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", c.LastSeen, before, after)
	}
}

func TestRegistrySetSensorLabel(t *testing.T) {
	reg := NewRegistry()

	reg.SetSensorLabel("a1b2c3", "cwu_temp", "Hot water tank")

	c := reg.GetController("a1b2c3")
	if c == nil {
		t.Fatal("Controller should exist after SetSensorLabel()")
	}

	if c.SensorLabels["cwu_temp"] != "Hot water tank" {
		t.Errorf("SensorLabels[cwu_temp] = %v, want 'Hot water tank'", c.SensorLabels["cwu_temp"])
	}

	// Setting an empty label removes the entry.
	reg.SetSensorLabel("a1b2c3", "cwu_temp", "")
	if _, exists := c.SensorLabels["cwu_temp"]; exists {
		t.Error("empty label should remove the sensor entry")
	}
}

func TestRegistrySetControllerNickname(t *testing.T) {
	reg := NewRegistry()

	reg.SetControllerNickname("a1b2c3", "Cellar boiler")

	c := reg.GetController("a1b2c3")
	if c == nil {
		t.Fatal("Controller should exist after SetControllerNickname()")
	}

	if c.Nickname != "Cellar boiler" {
		t.Errorf("Nickname = %v, want 'Cellar boiler'", c.Nickname)
	}
}

func TestParseRegistry(t *testing.T) {
	doc := []byte(`version: 1
controllers:
  "a1b2c3":
    nickname: "Cellar boiler"
    last_ip: "192.168.1.50"
    last_port: 8000
    sensor_labels:
      cwu_temp: "Hot water tank"
preferences:
  auto_discover: true
  discover_timeout: 10
  poll_interval_ms: 500
  default_controller: "a1b2c3"
`)

	reg, err := parseRegistry(doc)
	if err != nil {
		t.Fatalf("parseRegistry() error = %v", err)
	}

	c := reg.GetController("a1b2c3")
	if c == nil {
		t.Fatal("Controller should exist in parsed registry")
	}

	if c.Nickname != "Cellar boiler" {
		t.Errorf("Nickname = %v, want 'Cellar boiler'", c.Nickname)
	}
	if c.LastIP != "192.168.1.50" || c.LastPort != 8000 {
		t.Errorf("last address = %v:%v, want 192.168.1.50:8000", c.LastIP, c.LastPort)
	}
	if c.SensorLabels["cwu_temp"] != "Hot water tank" {
		t.Errorf("SensorLabels[cwu_temp] = %v", c.SensorLabels["cwu_temp"])
	}

	if reg.Preferences.DefaultController != "a1b2c3" {
		t.Errorf("DefaultController = %v, want a1b2c3", reg.Preferences.DefaultController)
	}
	if reg.Preferences.PollInterval() != 500*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 500ms", reg.Preferences.PollInterval())
	}
}

func TestParseRegistryRejectsUnknownVersion(t *testing.T) {
	_, err := parseRegistry([]byte("version: 2\n"))
	if err == nil {
		t.Fatal("parseRegistry() should reject unsupported versions")
	}
}

func TestParseRegistryInitializesMissingSections(t *testing.T) {
	reg, err := parseRegistry([]byte("version: 1\n"))
	if err != nil {
		t.Fatalf("parseRegistry() error = %v", err)
	}

	if reg.Controllers == nil {
		t.Error("Controllers map should be initialized")
	}
	if reg.Preferences == nil {
		t.Fatal("Preferences should be initialized")
	}
	if reg.Preferences.PollInterval() != time.Second {
		t.Errorf("default PollInterval() = %v, want 1s", reg.Preferences.PollInterval())
	}
}

func TestPreferencesPollInterval(t *testing.T) {
	tests := []struct {
		name  string
		prefs *Preferences
		want  time.Duration
	}{
		{"nil preferences", nil, time.Second},
		{"zero interval", &Preferences{}, time.Second},
		{"below minimum", &Preferences{PollIntervalMS: 50}, time.Second},
		{"valid interval", &Preferences{PollIntervalMS: 2000}, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.prefs.PollInterval(); got != tt.want {
				t.Errorf("PollInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Benchmark tests

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}

func BenchmarkEnsureController(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureController("a1b2c3")
	}
}
