package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"deepboot/internal/app"
)

var (
	statsFlags            selectorFlags
	statsIncludeWhitelist bool
	statsJSON             bool
)

func init() {
	rootCmd.AddCommand(cmdStats)
	statsFlags.bind(cmdStats, false)
	cmdStats.Flags().BoolVar(&statsIncludeWhitelist, "include-whitelisted", false, "Count whitelisted entries too")
	cmdStats.Flags().BoolVar(&statsJSON, "json", false, "Print the summary as JSON")
}

var cmdStats = &cobra.Command{
	Use:   "stats",
	Short: "Summarise startup entries by status and source",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, err := statsFlags.duration()
		if err != nil {
			return err
		}
		return withController(func(ctrl controllerAPI) error {
			stop := startSpinner(cmd.ErrOrStderr(), " Scanning startup entries...")
			res, err := ctrl.Stats(cmd.Context(), app.StatsParams{
				Selectors:     statsFlags.selectors(),
				IncludeExempt: statsIncludeWhitelist,
				Timeout:       timeout,
			})
			stop()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if statsJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Summary)
			}
			fmt.Fprint(out, res.Summary.String())
			return nil
		})
	},
}
