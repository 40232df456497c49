// Package config provides user configuration management for the furnace panel.
//
// This package manages a YAML-based configuration file that stores
// user-defined metadata for boiler controllers, including nicknames, sensor
// labels and application preferences. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/furnace-panel/config.yaml or $HOME/.config/furnace-panel/config.yaml
//   - macOS: $HOME/.config/furnace-panel/config.yaml
//   - Windows: %LOCALAPPDATA%\furnace-panel\config.yaml
//
// # Scope
//
// Only panel-side metadata lives in this file. The boiler's own
// configuration values (temperatures, hysteresis, work modes) are stored on
// the controller and edited through its configuration API.
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Record controller metadata
//	registry.SetControllerNickname("a1b2c3", "Cellar boiler")
//	registry.SetSensorLabel("a1b2c3", "cwu_temp", "Hot water tank")
//	registry.UpdateControllerLastSeen("a1b2c3", "192.168.1.50", 8000)
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
