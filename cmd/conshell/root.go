package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/conshell/internal/cli"
	"github.com/aretw0/conshell/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "conshell [--config=<file>] [command line]",
	Short: "conshell is a command-dispatch shell for console and network input",
	Long: `conshell runs its arguments as a command line, e.g.

  conshell -of json -v
  conshell --run
  conshell --start 6101

Run without arguments (or with -?) to list the available commands.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Execute(cmd.Context(), args, cli.Options{In: os.Stdin, Out: os.Stdout})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		// Command errors were already reported on the console.
		if errors.Is(err, domain.ErrUnknownCommand) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
