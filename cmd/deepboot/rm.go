package main

import (
	"github.com/spf13/cobra"

	"deepboot/internal/app"
	"deepboot/internal/startup"
)

var (
	rmFlags    selectorFlags
	rmAll      bool
	rmNoBackup bool
)

func init() {
	rootCmd.AddCommand(cmdRm)
	rmFlags.bind(cmdRm, true)
	cmdRm.Flags().BoolVar(&rmAll, "all", false, "Remove every entry that matches the selectors")
	cmdRm.Flags().BoolVar(&rmNoBackup, "no-backup", false, "Skip the automatic backup snapshot")
}

var cmdRm = &cobra.Command{
	Use:     "rm",
	Aliases: []string{"remove"},
	Short:   "Permanently remove startup entries",
	Long:    "Looks up entries using the same filters as `scan` and deletes their registrations. Services cannot be removed, only disabled.",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, err := rmFlags.duration()
		if err != nil {
			return err
		}
		return withController(func(ctrl controllerAPI) error {
			res, err := ctrl.Remove(cmd.Context(), app.ActParams{
				Selectors:       rmFlags.selectors(),
				AllowAll:        rmAll,
				Timeout:         timeout,
				RequireSelector: true,
				NoBackup:        rmNoBackup,
			})
			printActResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), startup.Remove, res)
			return err
		})
	},
}
