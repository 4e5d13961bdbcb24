package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"deepboot/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdWhitelist)
	cmdWhitelist.AddCommand(cmdWhitelistList, cmdWhitelistAdd, cmdWhitelistRm)
}

var cmdWhitelist = &cobra.Command{
	Use:   "whitelist",
	Short: "Manage entries that are never listed or touched",
	Long:  "Kinds are processes (executable file names), services (service names) and tasks (task names). Values match case-insensitively.",
}

var cmdWhitelistList = &cobra.Command{
	Use:   "list",
	Short: "Show the whitelist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl controllerAPI) error {
			res, err := ctrl.WhitelistList()
			if err != nil {
				return err
			}
			printWhitelist(cmd.OutOrStdout(), res)
			return nil
		})
	},
}

var cmdWhitelistAdd = &cobra.Command{
	Use:   "add <processes|services|tasks> <value>",
	Short: "Exempt a process, service or task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl controllerAPI) error {
			res, err := ctrl.WhitelistAdd(app.WhitelistParams{Kind: args[0], Value: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Whitelisted %s %q\n", res.Kind, strings.ToLower(strings.TrimSpace(res.Value)))
			return nil
		})
	},
}

var cmdWhitelistRm = &cobra.Command{
	Use:     "rm <processes|services|tasks> <value>",
	Aliases: []string{"remove"},
	Short:   "Drop a value from the whitelist",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl controllerAPI) error {
			res, err := ctrl.WhitelistRemove(app.WhitelistParams{Kind: args[0], Value: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %q from whitelist\n", res.Kind, strings.ToLower(strings.TrimSpace(res.Value)))
			return nil
		})
	},
}

func printWhitelist(w io.Writer, res app.WhitelistResult) {
	fmt.Fprintf(w, "Whitelist: %s\n", res.Path)
	sections := []struct {
		label  string
		values []string
	}{
		{"safe processes", res.Lists.Processes},
		{"safe services", res.Lists.Services},
		{"safe tasks", res.Lists.Tasks},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "%s (%d):\n", s.label, len(s.values))
		for _, v := range s.values {
			fmt.Fprintf(w, "  %s\n", v)
		}
	}
}
