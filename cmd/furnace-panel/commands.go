package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lecztomek/furnace-panel/internal/api"
	"github.com/lecztomek/furnace-panel/internal/config"
	"github.com/lecztomek/furnace-panel/internal/discovery"
	"github.com/lecztomek/furnace-panel/internal/display"
	"github.com/lecztomek/furnace-panel/internal/state"
	"github.com/lecztomek/furnace-panel/internal/tui"
)

// Command flags
var (
	controllerHost string
	controllerPort int
	scanTimeout    int
	outputFormat   string
	pollIntervalMS int
	useStream      bool
)

func init() {
	// Common flags for controller commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&controllerHost, "controller", "", "Controller address (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&controllerPort, "port", api.DefaultPort, "Controller HTTP port")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")

	// Add subcommands directly to root
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(panelCmd)
}

// scanCmd discovers controllers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for furnace controllers on the network",
	Long: `Scan for furnace controllers using mDNS/DNS-SD discovery.

This command listens for mDNS broadcasts from controllers and displays
all discovered controllers with their addresses, ids, and metadata.`,
	Example: `  # Scan for 10 seconds (default)
  furnace-panel scan

  # Quick 3-second scan
  furnace-panel scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for furnace controllers (timeout: %ds)...\n\n", scanTimeout)

	controllers, err := discovery.Scan(cmd.Context(), time.Duration(scanTimeout)*time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(controllers) == 0 {
		fmt.Println("No controllers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the controller is powered on and connected to the network")
		fmt.Println("  - Verify your computer is on the same network segment")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --controller flag to specify the address manually")
		return nil
	}

	// Remember addresses for next time.
	registry, regErr := config.LoadRegistry()

	fmt.Printf("Found %d controller(s):\n\n", len(controllers))

	for i, c := range controllers {
		fmt.Printf("%d. %s\n", i+1, c.Hostname)
		fmt.Printf("   Id:      %s\n", c.ID)
		fmt.Printf("   Address: %s:%d\n", c.IP, c.Port)
		if len(c.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", c.Metadata)
		}
		fmt.Println()

		if regErr == nil {
			registry.UpdateControllerLastSeen(c.ID, c.IP, c.Port)
		}
	}

	if regErr == nil {
		if err := registry.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save controller registry: %v\n", err)
		}
	}

	fmt.Println("Use 'furnace-panel status --controller <ip>' to view boiler state")
	fmt.Println("Use 'furnace-panel' to launch the interactive panel")

	return nil
}

// statusCmd displays the current boiler state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current boiler state",
	Long: `Display the current boiler state: mode, alarm, sensor readings,
output channels and controller module health.`,
	Example: `  # Show state with auto-discovery
  furnace-panel status

  # Show state for a specific controller
  furnace-panel status --controller 192.168.1.50

  # Compact one-line output
  furnace-panel status --format compact

  # JSON output for scripting
  furnace-panel status --format json`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := resolveClient(cmd.Context())
	if err != nil {
		return err
	}

	s, err := client.GetState(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get boiler state: %w", err)
	}

	switch outputFormat {
	case "compact":
		fmt.Println(formatStateCompact(s))
	case "json":
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "detailed":
		fallthrough
	default:
		fmt.Print(formatStateDetailed(s))
	}

	return nil
}

// modulesCmd lists the controller's configurable modules
var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List configurable modules",
	Long:  `List the configuration modules the controller exposes, with their schemas' field counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveClient(cmd.Context())
		if err != nil {
			return err
		}

		mods, err := client.ListModules(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list modules: %w", err)
		}

		if outputFormat == "json" {
			data, err := json.MarshalIndent(mods, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, mod := range mods {
			line := mod.ID
			if mod.Name != "" && mod.Name != mod.ID {
				line += " (" + mod.Name + ")"
			}
			fmt.Println(line)
			if mod.Description != "" {
				fmt.Printf("    %s\n", mod.Description)
			}
		}
		return nil
	},
}

// configCmd groups the direct configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or write controller configuration values",
}

var configGetCmd = &cobra.Command{
	Use:   "get <module> [key]",
	Short: "Show configuration values for a module",
	Long: `Show the current configuration values for a module, or a single
value when a key is given.`,
	Example: `  # All values of the burner module
  furnace-panel config get burner

  # One value
  furnace-panel config get burner target_temp`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <module> <key> <value>",
	Short: "Write a single configuration value",
	Long: `Write one configuration value on the controller and print the value
the controller actually stored. The controller validates against the
module's schema and may re-normalize the value (clamping, rounding).`,
	Example: `  furnace-panel config set burner target_temp 62
  furnace-panel config set burner pump_enabled true
  furnace-panel config set burner work_mode COMFORT`,
	Args: cobra.ExactArgs(3),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	client, err := resolveClient(cmd.Context())
	if err != nil {
		return err
	}

	moduleID := args[0]

	if len(args) == 2 {
		v, err := client.GetValue(cmd.Context(), moduleID, args[1])
		if err != nil {
			return fmt.Errorf("failed to get %s/%s: %w", moduleID, args[1], err)
		}
		fmt.Printf("%v\n", v)
		return nil
	}

	values, err := client.GetValues(cmd.Context(), moduleID)
	if err != nil {
		return fmt.Errorf("failed to get values for %s: %w", moduleID, err)
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	for _, key := range sortedKeys(values) {
		fmt.Printf("%-24s %v\n", key, values[key])
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	client, err := resolveClient(cmd.Context())
	if err != nil {
		return err
	}

	moduleID, key := args[0], args[1]
	value := parseValueArg(args[2])

	reconciled, err := client.PutValue(cmd.Context(), moduleID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", moduleID, key, err)
	}

	fmt.Printf("%s/%s = %v\n", moduleID, key, reconciled)
	return nil
}

// parseValueArg converts a command-line value to its JSON-typed form:
// booleans and numbers are sent as such, everything else as a string.
func parseValueArg(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

// watchCmd continuously prints boiler state
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously print boiler state",
	Long: `Print the boiler state repeatedly until interrupted.

By default the state is polled over HTTP at the given interval. With
--stream the controller's websocket state stream is used instead, which
pushes updates without per-request overhead.`,
	Example: `  # Poll every 2 seconds
  furnace-panel watch --interval 2000

  # Use the websocket stream
  furnace-panel watch --stream`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&pollIntervalMS, "interval", 1000, "Update interval in milliseconds")
	watchCmd.Flags().BoolVar(&useStream, "stream", false, "Use the websocket state stream instead of polling")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := resolveClient(ctx)
	if err != nil {
		return err
	}

	interval := time.Duration(pollIntervalMS) * time.Millisecond

	printState := func(s *state.DeviceState) {
		fmt.Println(formatStateCompact(s))
	}

	if useStream {
		if err := client.StreamState(ctx, interval, printState); err != nil {
			return fmt.Errorf("state stream failed: %w", err)
		}
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s, err := client.GetState(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "! %s\n", api.ShortMessage(err))
		} else {
			printState(s)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// panelCmd launches the interactive TUI panel
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Launch the interactive panel",
	Long: `Launch the interactive TUI panel.

The panel shows a live dashboard of the boiler state and a configuration
editor for the controller's modules. This is the default command.`,
	Example: `  # Launch with auto-discovery
  furnace-panel panel
  # Or simply (panel is default):
  furnace-panel

  # Launch for a specific controller
  furnace-panel --controller 192.168.1.50`,
	RunE: runPanel,
}

func runPanel(cmd *cobra.Command, args []string) error {
	client, err := resolveClient(cmd.Context())
	if err != nil {
		return err
	}

	// Verify the controller is reachable before entering the alt screen.
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("cannot reach controller at %s: %w", client.BaseURL, err)
	}

	interval := time.Second
	if registry, err := config.LoadRegistry(); err == nil {
		interval = registry.Preferences.PollInterval()
	}

	return tui.Run(client, interval)
}

// resolveClient builds an API client from the --controller flag, the saved
// registry, or mDNS discovery, in that order.
func resolveClient(ctx context.Context) (*api.Client, error) {
	if controllerHost != "" {
		return api.NewClient(controllerHost, controllerPort), nil
	}

	// Saved default controller with a known address.
	if registry, err := config.LoadRegistry(); err == nil {
		prefs := registry.Preferences
		if prefs != nil && prefs.DefaultController != "" {
			if c := registry.GetController(prefs.DefaultController); c != nil && c.LastIP != "" {
				port := c.LastPort
				if port == 0 {
					port = api.DefaultPort
				}
				return api.NewClient(c.LastIP, port), nil
			}
		}
	}

	// Fall back to discovery.
	fmt.Println("No controller specified, attempting auto-discovery...")
	controllers, err := discovery.Scan(ctx, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	if len(controllers) == 0 {
		return nil, fmt.Errorf("no controllers found. Use --controller flag to specify the address manually")
	}

	if len(controllers) > 1 {
		fmt.Printf("Found %d controllers:\n", len(controllers))
		for i, c := range controllers {
			fmt.Printf("%d. %s (%s)\n", i+1, c.ID, c.IP)
		}
		return nil, fmt.Errorf("multiple controllers found. Use --controller flag to specify which one")
	}

	c := controllers[0]
	fmt.Printf("Found controller: %s (%s)\n\n", c.ID, c.IP)
	return api.NewClient(c.IP, c.Port), nil
}

// formatStateDetailed renders a full multi-line state report.
func formatStateDetailed(s *state.DeviceState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Mode:  %s\n", s.ModeLabel())
	if s.AlarmActive {
		if s.AlarmMessage != "" {
			fmt.Fprintf(&b, "Alarm: %s\n", s.AlarmMessage)
		} else {
			fmt.Fprintf(&b, "Alarm: active\n")
		}
	}
	b.WriteString("\nSensors:\n")
	for _, name := range sortedKeys(s.Sensors) {
		fmt.Fprintf(&b, "  %-20s %s\n", name, display.FormatReading(s.Sensors[name], 1, "°C"))
	}

	b.WriteString("\nOutputs:\n")
	for _, name := range sortedKeys(s.Outputs) {
		switch v := s.Outputs[name].(type) {
		case bool:
			fmt.Fprintf(&b, "  %-20s %s\n", name, display.FormatOnOff(v))
		default:
			if n, ok := s.OutputNumber(name); ok {
				fmt.Fprintf(&b, "  %-20s %s\n", name, display.FormatNumber(n, 0, "%"))
			} else {
				fmt.Fprintf(&b, "  %-20s %v\n", name, v)
			}
		}
	}

	if len(s.Modules) > 0 {
		b.WriteString("\nController modules:\n")
		for _, name := range sortedKeys(s.Modules) {
			m := s.Modules[name]
			status := m.Health
			if m.LastError != nil && *m.LastError != "" {
				status += " (" + *m.LastError + ")"
			}
			fmt.Fprintf(&b, "  %-20s %s\n", name, status)
		}
	}

	return b.String()
}

// formatStateCompact renders a single-line state summary suitable for
// watch output.
func formatStateCompact(s *state.DeviceState) string {
	parts := []string{fmt.Sprintf("mode=%s", s.ModeLabel())}

	if s.AlarmActive {
		parts = append(parts, "ALARM")
	}

	for _, name := range []string{"boiler_temp", "cwu_temp", "return_temp"} {
		if v, ok := s.Sensors[name]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%s=%s", name, display.FormatNumber(*v, 1, "")))
		}
	}
	if n, ok := s.OutputNumber("fan_power"); ok {
		parts = append(parts, fmt.Sprintf("fan=%s", display.FormatNumber(n, 0, "%")))
	}
	if on, ok := s.OutputBool("pump_co_on"); ok {
		parts = append(parts, fmt.Sprintf("pump_co=%s", display.FormatOnOff(on)))
	}

	return strings.Join(parts, " ")
}

// sortedKeys returns a map's keys in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
