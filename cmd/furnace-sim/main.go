// Furnace-sim is a simulated furnace controller for panel development.
//
// It serves the controller's HTTP API (state, configuration, manual mode,
// websocket state push) backed by a crude boiler model, so the panel and
// the command-line tools can be exercised without hardware.
//
// Usage:
//
//	furnace-sim serve [flags]
//
// See 'furnace-sim serve --help' for available options.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lecztomek/furnace-panel/internal/api"
	"github.com/lecztomek/furnace-panel/internal/sim"
	"github.com/lecztomek/furnace-panel/internal/state"
	"github.com/lecztomek/furnace-panel/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "furnace-sim",
	Short: "Simulated furnace controller",
	Long: `A standalone simulated furnace controller.

The simulator speaks the same HTTP API as a real controller, so the
'furnace-panel' tool can connect to it for development and testing.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	host     string
	port     int
	logLevel string
	tickMS   int
	mode     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulated controller",
	Long: `Start the simulated controller and serve its HTTP API.

The boiler model advances once per tick: temperatures drift toward the
configured target, fan power follows hysteresis, and the overheat alarm
latches at 90 degrees.`,
	Example: `  # Start on the default controller port
  furnace-sim serve

  # Start on a custom port with debug logging
  furnace-sim serve --port 9000 --log-level debug

  # Start in manual mode for testing manual output control
  furnace-sim serve --mode MANUAL`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", api.DefaultPort, "Listen port")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().IntVar(&tickMS, "tick", 1000, "Simulation tick interval in milliseconds")
	serveCmd.Flags().StringVar(&mode, "mode", "WORK", "Initial boiler mode (OFF, IGNITION, WORK, MANUAL)")
}

func runServe(cmd *cobra.Command, args []string) error {
	initialMode := state.Mode(mode)
	switch initialMode {
	case state.ModeOff, state.ModeIgnition, state.ModeWork, state.ModeManual:
	default:
		return fmt.Errorf("invalid mode %q (expected OFF, IGNITION, WORK, or MANUAL)", mode)
	}

	if tickMS < 100 {
		return fmt.Errorf("tick interval must be at least 100ms, got %d", tickMS)
	}

	srv, err := sim.New(&sim.Config{
		Host:         host,
		Port:         port,
		LogLevel:     logLevel,
		TickInterval: time.Duration(tickMS) * time.Millisecond,
		InitialMode:  initialMode,
	})
	if err != nil {
		return fmt.Errorf("failed to create simulator: %w", err)
	}

	return srv.Start()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("furnace-sim %s (commit: %s)\n", version.Version, version.Commit)
	},
}
