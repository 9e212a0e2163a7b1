package main

import (
	"fmt"

	"github.com/miretskiy/linesim/integration"
	"github.com/miretskiy/linesim/simulator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <input>",
	Short: "Check a line configuration without running it",
	Long:  `Loads the configuration, checks parameter bounds and the station graph (one initial station, one terminal station, no cycles) and reports the result.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := integration.Load(args[0])
		if err != nil {
			return err
		}
		sim, err := simulator.NewSimulator(config)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d stations, %d links, %d items, %d workers)\n",
			args[0], len(sim.Stations()), len(config.Links), config.Seed.ItemCount, sim.TotalWorkers())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
