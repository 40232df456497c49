package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lecztomek/furnace-panel/internal/api"
	"github.com/lecztomek/furnace-panel/internal/display"
)

// manualCmd groups manual-mode output control
var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Inspect or force outputs in manual mode",
	Long: `Inspect or force the boiler's outputs while it is in manual mode.

The controller only accepts output changes in MANUAL mode; outside it,
'manual set' fails with the controller's own message.`,
}

var manualShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current manual output state",
	RunE:  runManualShow,
}

// Manual set flags
var (
	manFanPower   int
	manFeeder     bool
	manPumpCo     bool
	manPumpCwu    bool
	manMixerOpen  bool
	manMixerClose bool
)

var manualSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Force manual outputs",
	Long: `Force one or more outputs. Only the flags given on the command line
are changed; everything else keeps its current state.`,
	Example: `  # Run the fan at 40% with the feeder off
  furnace-panel manual set --fan 40 --feeder=false

  # Drive the mixer open
  furnace-panel manual set --mixer-open=true --mixer-close=false`,
	RunE: runManualSet,
}

func init() {
	manualCmd.AddCommand(manualShowCmd)
	manualCmd.AddCommand(manualSetCmd)
	rootCmd.AddCommand(manualCmd)

	manualSetCmd.Flags().IntVar(&manFanPower, "fan", 0, "Fan power (0-100)")
	manualSetCmd.Flags().BoolVar(&manFeeder, "feeder", false, "Feeder on/off")
	manualSetCmd.Flags().BoolVar(&manPumpCo, "pump-co", false, "CH pump on/off")
	manualSetCmd.Flags().BoolVar(&manPumpCwu, "pump-cwu", false, "DHW pump on/off")
	manualSetCmd.Flags().BoolVar(&manMixerOpen, "mixer-open", false, "Mixer open drive on/off")
	manualSetCmd.Flags().BoolVar(&manMixerClose, "mixer-close", false, "Mixer close drive on/off")
}

func runManualShow(cmd *cobra.Command, args []string) error {
	client, err := resolveClient(cmd.Context())
	if err != nil {
		return err
	}

	ms, err := client.GetManual(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get manual state: %w", err)
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(ms, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Mode:        %s\n", ms.Mode.Display())
	fmt.Printf("Fan power:   %s\n", display.FormatNumber(float64(ms.Manual.FanPower), 0, "%"))
	fmt.Printf("Feeder:      %s\n", display.FormatOnOff(ms.Manual.FeederOn))
	fmt.Printf("CH pump:     %s\n", display.FormatOnOff(ms.Manual.PumpCoOn))
	fmt.Printf("DHW pump:    %s\n", display.FormatOnOff(ms.Manual.PumpCwuOn))
	fmt.Printf("Mixer open:  %s\n", display.FormatOnOff(ms.Manual.MixerOpenOn))
	fmt.Printf("Mixer close: %s\n", display.FormatOnOff(ms.Manual.MixerCloseOn))
	return nil
}

func runManualSet(cmd *cobra.Command, args []string) error {
	// Only flags explicitly given become part of the patch; the controller
	// leaves the rest unchanged.
	patch := &api.ManualPatch{}
	changed := false
	if cmd.Flags().Changed("fan") {
		patch.FanPower = &manFanPower
		changed = true
	}
	if cmd.Flags().Changed("feeder") {
		patch.FeederOn = &manFeeder
		changed = true
	}
	if cmd.Flags().Changed("pump-co") {
		patch.PumpCoOn = &manPumpCo
		changed = true
	}
	if cmd.Flags().Changed("pump-cwu") {
		patch.PumpCwuOn = &manPumpCwu
		changed = true
	}
	if cmd.Flags().Changed("mixer-open") {
		patch.MixerOpenOn = &manMixerOpen
		changed = true
	}
	if cmd.Flags().Changed("mixer-close") {
		patch.MixerCloseOn = &manMixerClose
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to set: give at least one output flag (see --help)")
	}

	client, err := resolveClient(cmd.Context())
	if err != nil {
		return err
	}

	if err := client.SetManualOutputs(cmd.Context(), patch); err != nil {
		return fmt.Errorf("failed to set manual outputs: %w", err)
	}

	fmt.Println("Manual outputs updated.")
	return nil
}
