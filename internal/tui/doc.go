// Package tui implements the terminal user interface for the furnace panel.
//
// This package provides an interactive, full-screen TUI for monitoring a
// boiler controller and editing its runtime configuration. Built using the
// Bubble Tea framework, it follows the Elm architecture with immutable
// state updates and a clean Model-Update-View pattern.
//
// # Architecture
//
// The panel has two tabs:
//   - Dashboard: live boiler schematic read-outs (temperatures, burner,
//     pumps, mode and alarm banner)
//   - Config: per-module configuration editor driven by the schemas the
//     controller serves
//
// Both tabs render through a unified container (RenderApplicationContainer)
// for consistent layout with header, content area and context-sensitive
// footer.
//
// # Data Flow
//
// Dashboard values never come from ad-hoc fetches inside the view. A
// background poller fetches state snapshots, the view applier diffs each
// snapshot against the last rendered values, and only changed fields are
// written to the FieldBuffer. Writes are batched: the applier schedules one
// flush per frame, delivered to the update loop as a message, so a burst of
// snapshots still produces at most one renderer write per field per frame.
//
// Terminal focus drives the poll lifecycle: losing focus suspends polling
// and aborts the in-flight request; regaining focus polls immediately.
//
// # Framework Components
//
// The TUI leverages Bubble Tea framework components throughout:
//   - bubbles/spinner: loading and save-in-progress indicators
//   - bubbles/help: context-aware help system
//   - bubbles/key: declarative key bindings
//   - lipgloss: styling and layout
//
// # Key Bindings
//
// Each tab has context-aware key bindings:
//   - Dashboard: r refresh now, tab/c config, q quit
//   - Config: [/] switch module, ↑/↓ navigate fields, ←/→ adjust value,
//     s save, u revert, R reload module, esc dashboard, q quit
//
// # State Management
//
// Models contain all state, Update() returns new model + commands, View()
// is a pure function of model state, and commands represent async
// operations (module loads, saves). The Bubble Tea framework ensures
// thread safety through message passing: all model updates occur in a
// single goroutine.
package tui
