package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"deepboot/internal/app"
	"deepboot/internal/startup"
)

var (
	scanFlags            selectorFlags
	scanSort             string
	scanIncludeWhitelist bool
	scanJSON             bool
)

func init() {
	rootCmd.AddCommand(cmdScan)
	scanFlags.bind(cmdScan, true)
	cmdScan.Flags().StringVar(&scanSort, "sort", "", "Sort by name, source, status or command (default from config)")
	cmdScan.Flags().BoolVar(&scanIncludeWhitelist, "include-whitelisted", false, "Also list whitelisted entries")
	cmdScan.Flags().BoolVar(&scanJSON, "json", false, "Print entries as JSON")
}

var cmdScan = &cobra.Command{
	Use:     "scan",
	Aliases: []string{"list", "ls"},
	Short:   "List startup entries from every source",
	Long:    "Scans the registry Run keys, auto-start services and scheduled tasks. Whitelisted entries are hidden unless --include-whitelisted is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, err := scanFlags.duration()
		if err != nil {
			return err
		}
		return withController(func(ctrl controllerAPI) error {
			stop := startSpinner(cmd.ErrOrStderr(), " Scanning startup entries...")
			res, err := ctrl.Scan(cmd.Context(), app.ScanParams{
				Selectors:     scanFlags.selectors(),
				Sort:          scanSort,
				IncludeExempt: scanIncludeWhitelist,
				Timeout:       timeout,
			})
			stop()
			if err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			for _, msg := range app.ScanFailureMessages(res.Failures) {
				fmt.Fprintf(errOut, "warning: scan failed for %s\n", msg)
			}
			if res.ExportPath != "" {
				fmt.Fprintf(errOut, "Exported report to %s\n", res.ExportPath)
			}

			out := cmd.OutOrStdout()
			if scanJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				entries := res.Entries
				if entries == nil {
					entries = []startup.Entry{}
				}
				return enc.Encode(entries)
			}
			if len(res.Entries) == 0 {
				fmt.Fprintln(out, "No startup entries found")
				return nil
			}
			for _, e := range res.Entries {
				printEntry(out, e)
			}
			if res.Exempted > 0 {
				fmt.Fprintf(out, "%d entries shown, %d whitelisted hidden\n", len(res.Entries), res.Exempted)
			}
			return nil
		})
	},
}

func printEntry(w io.Writer, e startup.Entry) {
	fmt.Fprintf(w, "[%s] %s status=%s cmd=%s\n", e.Source.Slug(), e.Name, e.Status(), e.Command)
}

// startSpinner shows progress on w. The spinner stays silent when w is not
// a terminal.
func startSpinner(w io.Writer, suffix string) func() {
	if w == nil {
		w = os.Stderr
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = suffix
	s.Start()
	return s.Stop
}
