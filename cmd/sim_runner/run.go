package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/miretskiy/linesim/integration"
	"github.com/miretskiy/linesim/simulator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runOptions struct {
	csvPath     string
	csvLegacy   bool
	xlsxPath    string
	summaryPath string
	stats       bool
	overrides   []string
	limits      simulator.Limits // Zero fields keep the stock bounds
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Simulate a line to completion",
	Long: `Loads the configuration (.yaml, .yml, .json or .xlsx), runs it until every item has
left the terminal station and writes the requested outputs. Without --summary the
summary JSON goes to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		return runSimulation(args[0], runOpts, cmd.OutOrStdout(), logger)
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.csvPath, "csv", "", "Write the event log as CSV to this path")
	runCmd.Flags().BoolVar(&runOpts.csvLegacy, "csv-legacy", false, "Use the legacy Time,ProductionCenter,WorkersCount,BufferCount columns for --csv")
	runCmd.Flags().StringVar(&runOpts.xlsxPath, "xlsx", "", "Write events and station statistics as an Excel workbook to this path")
	runCmd.Flags().StringVar(&runOpts.summaryPath, "summary", "", "Write the summary JSON to this path instead of stdout")
	runCmd.Flags().BoolVar(&runOpts.stats, "stats", false, "Print per-station statistics")
	runCmd.Flags().StringArrayVar(&runOpts.overrides, "set", nil, "Override a parameter, e.g. --set totalWorkers=8 or --set station.A.maxWorkers=2")
	runCmd.Flags().Float64Var(&runOpts.limits.MaxProcessingTime, "max-processing-time", 0, "Raise or lower the processing time bound (default 10)")
	runCmd.Flags().IntVar(&runOpts.limits.MaxTotalWorkers, "max-workers", 0, "Raise or lower the worker budget bound (default 40)")
	runCmd.Flags().IntVar(&runOpts.limits.MaxItems, "max-items", 0, "Raise or lower the seeded batch bound (default 2000)")
	runCmd.Flags().IntVar(&runOpts.limits.MaxStations, "max-stations", 0, "Raise or lower the station count bound (default 20)")
	rootCmd.AddCommand(runCmd)
}

// runSimulation parses the input, applies overrides and limits from the
// command line, then validates and builds the line, so configuration errors
// surface before any output file is created.
func runSimulation(input string, opts runOptions, stdout io.Writer, logger *zap.Logger) error {
	config, err := integration.Parse(input)
	if err != nil {
		return err
	}
	if len(opts.overrides) > 0 {
		params, err := integration.ParseOverrides(opts.overrides)
		if err != nil {
			return err
		}
		if config, err = integration.ApplyOverrides(config, params); err != nil {
			return err
		}
	}
	config.Limits = opts.limits
	if err := config.Validate(); err != nil {
		return err
	}

	sim, err := simulator.NewSimulator(config)
	if err != nil {
		return err
	}
	sim.SetLogger(logger)

	logger.Info("starting simulation",
		zap.String("input", input),
		zap.Int("stations", len(config.Stations)),
		zap.Int("items", config.Seed.ItemCount),
		zap.Int("workers", config.Seed.TotalWorkers))
	startTime := time.Now()
	sim.Run()
	logger.Info("simulation finished",
		zap.Int("ticks", sim.ElapsedTicks()),
		zap.Duration("elapsed", time.Since(startTime)))

	events := sim.Events()
	metrics := sim.Metrics()

	if opts.csvPath != "" {
		writeCSV := integration.WriteEventsCSV
		if opts.csvLegacy {
			writeCSV = integration.WriteLegacyEventsCSV
		}
		if err := writeFile(opts.csvPath, func(w io.Writer) error {
			return writeCSV(w, events)
		}); err != nil {
			return err
		}
		logger.Info("events written", zap.String("path", opts.csvPath), zap.Int("events", len(events)))
	}
	if opts.xlsxPath != "" {
		if err := writeFile(opts.xlsxPath, func(w io.Writer) error {
			return integration.WriteXLSX(w, events, metrics)
		}); err != nil {
			return err
		}
		logger.Info("workbook written", zap.String("path", opts.xlsxPath))
	}

	if opts.summaryPath != "" {
		if err := writeFile(opts.summaryPath, func(w io.Writer) error {
			return integration.WriteSummaryJSON(w, metrics)
		}); err != nil {
			return err
		}
		logger.Info("summary written", zap.String("path", opts.summaryPath))
	} else if !opts.stats {
		if err := integration.WriteSummaryJSON(stdout, metrics); err != nil {
			return err
		}
	}

	if opts.stats {
		if err := integration.WriteStatistics(stdout, metrics); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
