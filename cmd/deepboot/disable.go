package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"deepboot/internal/app"
	"deepboot/internal/startup"
)

var (
	disableFlags    selectorFlags
	disableAll      bool
	disableNoBackup bool
)

func init() {
	rootCmd.AddCommand(cmdDisable)
	disableFlags.bind(cmdDisable, true)
	cmdDisable.Flags().BoolVar(&disableAll, "all", false, "Disable every entry that matches the selectors")
	cmdDisable.Flags().BoolVar(&disableNoBackup, "no-backup", false, "Skip the automatic backup snapshot")
}

var cmdDisable = &cobra.Command{
	Use:   "disable",
	Short: "Stop startup entries from running at boot",
	Long:  "Selects entries via the same filters as `scan`. Services and tasks are switched off; registry values have no disabled state and are deleted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, err := disableFlags.duration()
		if err != nil {
			return err
		}
		return withController(func(ctrl controllerAPI) error {
			res, err := ctrl.Disable(cmd.Context(), app.ActParams{
				Selectors:       disableFlags.selectors(),
				AllowAll:        disableAll,
				Timeout:         timeout,
				RequireSelector: true,
				NoBackup:        disableNoBackup,
			})
			printActResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), startup.Disable, res)
			return err
		})
	},
}

func printActResult(out, errOut io.Writer, action startup.Action, res app.ActResult) {
	if res.BackupPath != "" {
		fmt.Fprintf(errOut, "Backup written to %s\n", res.BackupPath)
	}
	if res.BackupErr != nil {
		fmt.Fprintf(errOut, "warning: backup failed: %v\n", res.BackupErr)
	}
	for _, event := range res.Events {
		e := event.Entry
		switch event.Kind {
		case "success":
			fmt.Fprintf(out, "%sd [%s] %s\n", capitalize(action.Verb()), e.Source.Slug(), e.Name)
		default:
			fmt.Fprintf(out, "Failed to %s [%s] %s: %v\n", action.Verb(), e.Source.Slug(), e.Name, event.Err)
		}
	}
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
