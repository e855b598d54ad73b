package main

import (
	"fmt"

	"github.com/aretw0/conshell"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of conshell",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "conshell version %s\n", conshell.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
