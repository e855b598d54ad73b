package main

import (
	"fmt"

	"github.com/aretw0/conshell/internal/cli"
	"github.com/aretw0/conshell/internal/presentation/graph"
	"github.com/aretw0/conshell/pkg/domain"
	"github.com/spf13/cobra"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "Print the execution-mode state machine as a Mermaid diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		var shellArgs []string
		if configPath != "" {
			shellArgs = []string{"--config=" + configPath}
		}
		cfg, _, err := cli.Load(shellArgs, nil)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(domain.ModeTransitions, cfg.Marker, nil))
		return nil
	},
}

func init() {
	modesCmd.Flags().String("config", "", "Configuration file")
	rootCmd.AddCommand(modesCmd)
}
