package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"deepboot/internal/app"
)

var (
	backupFlags            selectorFlags
	backupIncludeWhitelist bool
)

func init() {
	rootCmd.AddCommand(cmdBackup)
	cmdBackup.AddCommand(cmdBackupCreate, cmdBackupList, cmdBackupShow, cmdBackupDelete)
	backupFlags.bind(cmdBackupCreate, true)
	cmdBackupCreate.Flags().BoolVar(&backupIncludeWhitelist, "include-whitelisted", false, "Include whitelisted entries")
}

var cmdBackup = &cobra.Command{
	Use:   "backup",
	Short: "Create and inspect backup snapshots",
	Long:  "Snapshots record each entry with its original location. A snapshot can be reviewed later with --offline <path>.",
}

var cmdBackupCreate = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the entries matching the selectors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, err := backupFlags.duration()
		if err != nil {
			return err
		}
		return withController(func(ctrl controllerAPI) error {
			res, err := ctrl.BackupCreate(cmd.Context(), app.BackupParams{
				Selectors:     backupFlags.selectors(),
				IncludeExempt: backupIncludeWhitelist,
				Timeout:       timeout,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d entries to %s\n", res.Count, res.Path)
			return nil
		})
	},
}

var cmdBackupList = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List snapshots, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl controllerAPI) error {
			infos, err := ctrl.BackupList()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintln(out, "No backups found")
				return nil
			}
			for _, info := range infos {
				if info.Err != nil {
					fmt.Fprintf(out, "%s unreadable: %v\n", info.Path, info.Err)
					continue
				}
				fmt.Fprintf(out, "%s created=%s entries=%d\n", info.Path, info.Created.Local().Format(time.DateTime), info.Count)
			}
			return nil
		})
	},
}

var cmdBackupShow = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the entries stored in a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl controllerAPI) error {
			snap, err := ctrl.BackupShow(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Snapshot v%d created %s, %d entries\n", snap.Version, snap.CreatedAt().Local().Format(time.DateTime), len(snap.Items))
			for _, item := range snap.Items {
				printEntry(out, item.Entry)
				if item.OriginalPath != "" {
					fmt.Fprintf(out, "    from %s\n", item.OriginalPath)
				}
			}
			return nil
		})
	},
}

var cmdBackupDelete = &cobra.Command{
	Use:     "delete <file>",
	Aliases: []string{"rm"},
	Short:   "Delete a snapshot",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl controllerAPI) error {
			if err := ctrl.BackupDelete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}
