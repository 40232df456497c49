// Package sim implements a simulated furnace controller for development
// and testing without hardware.
//
// The simulator exposes the same HTTP surface as a real controller:
//
//   - GET  /state/current                 one state snapshot
//   - GET  /config/modules                configurable module list
//   - GET  /config/schema/{module}        per-module field schema
//   - GET  /config/values/{module}        current configuration values
//   - PUT  /config/values/{module}        full-draft save, returns reconciled values
//   - GET  /config/value/{module}/{key}   single value read
//   - PUT  /config/value/{module}/{key}   single value write
//   - GET  /manual/current                manual-mode output block
//   - POST /manual/outputs                partial manual output update
//   - GET  /ws/state                      websocket state push
//
// Error responses use the controller's {"detail": "..."} envelope, so the
// api package's error taxonomy applies unchanged.
//
// The boiler model is deliberately crude: sensor readings drift toward the
// configured target temperature, fan power follows a simple hysteresis
// controller, and the overheat alarm latches at 90 degrees. Crude is good
// enough to exercise every display path in the panel, including absent
// sensors (outside_temp always reads as disconnected) and mode changes.
package sim
