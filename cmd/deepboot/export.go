package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deepboot/internal/app"
)

var (
	exportFlags            selectorFlags
	exportFormat           string
	exportOutput           string
	exportIncludeWhitelist bool
)

func init() {
	rootCmd.AddCommand(cmdExport)
	exportFlags.bind(cmdExport, true)
	cmdExport.Flags().StringVarP(&exportFormat, "format", "f", "json", "Report format: json, csv or markdown")
	cmdExport.Flags().StringVarP(&exportOutput, "output", "o", "", "Directory for the report, or - for stdout (default: the data dir's exports folder)")
	cmdExport.Flags().BoolVar(&exportIncludeWhitelist, "include-whitelisted", false, "Include whitelisted entries")
}

var cmdExport = &cobra.Command{
	Use:   "export",
	Short: "Write a scan report as JSON, CSV or Markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, err := exportFlags.duration()
		if err != nil {
			return err
		}
		return withController(func(ctrl controllerAPI) error {
			params := app.ExportParams{
				Selectors:     exportFlags.selectors(),
				Format:        exportFormat,
				IncludeExempt: exportIncludeWhitelist,
				Timeout:       timeout,
			}
			if exportOutput == "-" {
				params.Writer = cmd.OutOrStdout()
			} else {
				params.Dir = exportOutput
			}
			res, err := ctrl.Export(cmd.Context(), params)
			if err != nil {
				return err
			}
			if res.Path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", res.Count, res.Path)
			}
			return nil
		})
	},
}
