package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/dusk"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dusk",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dusk version %s\n", strings.TrimSpace(dusk.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
