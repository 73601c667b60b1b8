package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/dusk/pkg/core"
)

var (
	boardPersisted bool
	boardJSON      bool
)

var postCmd = &cobra.Command{
	Use:   "post <text>",
	Short: "Post to the twilight board (only while the plaza is open)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		msg, err := svc.SubmitMessage(ctxOf(cmd), strings.Join(args, " "))
		if errors.Is(err, core.ErrBoardClosed) {
			return fmt.Errorf("%w; it opens %s", err, ago(svc.NextOpenTime()))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "posted %s\n", msg.ID)
		return nil
	},
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the twilight board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := ctxOf(cmd)
		var msgs []core.BoardMessage
		if boardPersisted {
			msgs = svc.ListMessages(ctx)
		} else {
			msgs, err = svc.Feed(ctx)
			if errors.Is(err, core.ErrBoardClosed) {
				fmt.Fprintf(cmd.OutOrStdout(), "the plaza is closed; it opens %s\n", ago(svc.NextOpenTime()))
				return nil
			}
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if boardJSON {
			return writeJSON(out, msgs)
		}
		for _, m := range msgs {
			printMessage(out, m)
		}
		return nil
	},
}

var resonateCmd = &cobra.Command{
	Use:   "resonate <id>",
	Short: "Resonate with a board message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := ctxOf(cmd)
		ref := core.Real(args[0])
		for _, m := range svc.ListMessages(ctx) {
			if m.Ref() != ref {
				continue
			}
			updated, _, err := svc.ReactToMessage(ctx, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now resonates with %d\n", updated.ID, updated.ResonanceCount)
			return nil
		}
		return fmt.Errorf("%w: %s", core.ErrNotFound, args[0])
	},
}

func init() {
	rootCmd.AddCommand(postCmd, boardCmd, resonateCmd)
	boardCmd.Flags().BoolVar(&boardPersisted, "persisted", false, "Show only stored messages, without filler")
	boardCmd.Flags().BoolVar(&boardJSON, "json", false, "Output in JSON format")
}
