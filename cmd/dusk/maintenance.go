package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aretw0/dusk/pkg/core"
)

var (
	exportOut string
	wipeYes   bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop board messages older than the retention horizon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		n, err := svc.PruneMessages(ctxOf(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d %s\n", n, plural(n, "message"))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the plaza is open",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		out := cmd.OutOrStdout()
		if svc.IsBoardOpen() {
			fmt.Fprintln(out, "the plaza is open")
		} else {
			fmt.Fprintf(out, "the plaza is closed; it opens %s (%s)\n",
				ago(svc.NextOpenTime()), svc.NextOpenTime().Format("Mon 15:04"))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the stored collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		s := svc.Statistics(ctxOf(cmd))
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "entries:       %s\n", humanize.Comma(int64(s.TotalEntries)))
		fmt.Fprintf(out, "messages:      %s\n", humanize.Comma(int64(s.TotalMessages)))
		fmt.Fprintf(out, "resonances:    %s\n", humanize.Comma(int64(s.TotalResonances)))
		fmt.Fprintf(out, "last activity: %s\n", ago(s.LastActivity))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every collection as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		snap, err := svc.ExportSnapshot(ctxOf(cmd))
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			return writeJSON(cmd.OutOrStdout(), snap)
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		if err := writeJSON(f, snap); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries and %d messages to %s\n",
			len(snap.JournalEntries), len(snap.BoardMessages), exportOut)
		return nil
	},
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every stored collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wipeYes {
			return errors.New("refusing to wipe without --yes")
		}
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.WipeAll(ctxOf(cmd)); err != nil {
			if errors.Is(err, core.ErrStorage) {
				return fmt.Errorf("wipe incomplete: %w", err)
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wiped")
		return nil
	},
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func init() {
	rootCmd.AddCommand(pruneCmd, statusCmd, statsCmd, exportCmd, wipeCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to file instead of stdout")
	wipeCmd.Flags().BoolVar(&wipeYes, "yes", false, "Confirm deletion")
}
