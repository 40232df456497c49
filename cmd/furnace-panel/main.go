// Furnace-panel is a terminal control panel for boiler controllers.
//
// It provides a live dashboard of the boiler state, a schema-driven editor
// for the controller's runtime configuration, and direct commands for
// scripting. The panel communicates with the controller over its HTTP API
// on the local network.
//
// Usage:
//
//	furnace-panel [command] [flags]
//
// Running without arguments launches the interactive panel.
// See 'furnace-panel --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lecztomek/furnace-panel/internal/logging"
	"github.com/lecztomek/furnace-panel/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "furnace-panel",
	Short: "Boiler Controller Panel",
	Long: `A terminal control panel for boiler controllers.

Provides a live dashboard of the boiler state (temperatures, burner,
pumps, alarms), a schema-driven configuration editor, and direct
commands for scripting.

If no command is specified, the interactive panel will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the panel when no subcommand provided
		return runPanel(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("furnace-panel %s (commit: %s)\n", version.Version, version.Commit)
	},
}
