package main

import (
	"fmt"

	"github.com/miretskiy/linesim/integration"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <input>",
	Short: "Export the line as a Mermaid diagram",
	Long:  `Loads the configuration and prints a Mermaid flowchart (graph LR) of stations and links.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := integration.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), integration.GenerateMermaid(config))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
