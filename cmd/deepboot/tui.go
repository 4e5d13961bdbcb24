package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"deepboot/internal/tui"
)

var tuiTimeout int

func init() {
	rootCmd.AddCommand(cmdTUI)
	cmdTUI.Flags().IntVar(&tuiTimeout, "timeout", 0, "Timeout in seconds for each scan and action (0 uses the configured scan timeout)")
}

var cmdTUI = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl controllerAPI) error {
			if err := runTUI(ctrl, tuiOptions(ctrl, time.Duration(tuiTimeout)*time.Second)); err != nil {
				return fmt.Errorf("tui exited with error: %w", err)
			}
			return nil
		})
	},
}

// runTUI is swapped in tests.
var runTUI = func(ctrl controllerAPI, opts tui.Options) error {
	return tui.Run(ctrl, opts)
}

func tuiOptions(ctrl controllerAPI, timeout time.Duration) tui.Options {
	cfg := ctrl.Config()
	if timeout <= 0 {
		timeout = cfg.ScanTimeout
	}
	return tui.Options{
		Timeout:      timeout,
		ExportFormat: cfg.AutoExport,
		Offline:      ctrl.Offline(),
	}
}
