package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var entriesJSON bool

var archiveCmd = &cobra.Command{
	Use:   "archive <text>",
	Short: "Archive a private journal entry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		entry, err := svc.ArchiveEntry(ctxOf(cmd), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "archived %s\n", entry.ID)
		return nil
	},
}

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List archived journal entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		entries := svc.ListEntries(ctxOf(cmd))
		out := cmd.OutOrStdout()
		if entriesJSON {
			return writeJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "no entries yet")
			return nil
		}
		for _, e := range entries {
			printEntry(out, e)
		}
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Delete a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.DeleteEntry(ctxOf(cmd), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "forgot %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd, entriesCmd, forgetCmd)
	entriesCmd.Flags().BoolVar(&entriesJSON, "json", false, "Output in JSON format")
}
