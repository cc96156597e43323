package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	_ "github.com/ianlancetaylor/cgosymbolizer"
	sqlx "github.com/jmoiron/sqlx"
	gaindrift "github.com/mjd-analysis/gaindrift_go/pkg"
	"github.com/mjd-analysis/gaindrift_go/pkg/hdf5writer"
)

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	opts, err := parseArgs(args, out)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		logger.Error(err.Error())
		return 1
	}

	configuration, err := LoadConfiguration(opts.ConfigFile)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return 1
	}
	configuration.Channel = opts.Channel
	configuration.AcceptedCount = opts.AcceptedCount
	if opts.Verbosity >= 0 {
		configuration.Verbosity = opts.Verbosity
	}
	VerbosityLevel = configuration.Verbosity
	gaindrift.SetLogger(logger)

	logger.Info(fmt.Sprintf("channel = %d", configuration.Channel), "main")
	logger.Info(fmt.Sprintf("acceptedCount = %d", configuration.AcceptedCount), "main")
	if VerbosityLevel > 0 {
		printConfiguration(configuration, logger)
	}

	var dbConn *sqlx.DB
	if configuration.RunsFromDB || configuration.GeometryFromDB {
		dbConn, err = gaindrift.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			message := fmt.Errorf("Error connection to database: %w", err)
			logger.Error(message.Error())
			return 1
		}
		defer dbConn.Close()
	}

	window, err := resolveWindow(configuration, dbConn)
	if err != nil {
		var invalid *gaindrift.InvalidChannelError
		if errors.As(err, &invalid) {
			fmt.Fprintf(out, "Invalid Channel. Only can use: %v\n", invalid.Valid)
		}
		logger.Error(err.Error())
		return 1
	}

	runs, err := acceptedRuns(configuration, dbConn)
	if err != nil {
		var listErr *gaindrift.InputListError
		if errors.As(err, &listErr) {
			fmt.Fprintf(out, "Cannot read run list %s\n", listErr.Filename)
		}
		logger.Error(err.Error())
		return 1
	}

	start := time.Now()
	processor := gaindrift.NewProcessor(configuration, window, gaindrift.NewROOTLoader(configuration))
	summary, err := processor.Process(runs)
	if err != nil {
		message := fmt.Errorf("Error processing runs: %w", err)
		logger.Error(message.Error())
		return 1
	}

	if err := writeOutput(configuration, processor); err != nil {
		logger.Error(err.Error())
		return 1
	}

	if configuration.PlotDir != "" {
		files, err := gaindrift.SavePlots(configuration.PlotDir, processor.Series(), processor.Spectrum(), window)
		if err != nil {
			message := fmt.Errorf("Error saving plots: %w", err)
			logger.Error(message.Error())
			return 1
		}
		if VerbosityLevel > 0 {
			logger.Info(fmt.Sprintf("Saved %d plots in %s", len(files), configuration.PlotDir), "main")
		}
	}

	message := fmt.Sprintf("Processed %d runs (%d skipped, %d with empty pulser window) in %s",
		len(summary.Processed), len(summary.Skipped), len(summary.EmptyWindow), time.Since(start))
	logger.Info(message, "main")
	if len(summary.Skipped) > 0 {
		logger.Error(fmt.Sprintf("Skipped runs: %v", summary.Skipped))
	}
	return 0
}

// resolveWindow computes the pulser and overshoot windows of the channel,
// taking the geometry from the database when configured.
func resolveWindow(config gaindrift.Configuration, db *sqlx.DB) (gaindrift.ChannelWindow, error) {
	geometry := gaindrift.DefaultGeometry()
	if config.GeometryFromDB {
		var err error
		geometry, err = gaindrift.GetGeometryFromDB(db, config.StartRun)
		if err != nil {
			return gaindrift.ChannelWindow{}, fmt.Errorf("Error reading geometry from database: %w", err)
		}
	}

	window, err := geometry.Resolve(config.Channel, config.WindowHalfWidth)
	if err != nil {
		return window, err
	}
	if err := window.Validate(config.Binning()); err != nil {
		return window, err
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Pulser window [%g, %g], overshoot window [%g, %g]",
			window.Pulser.Lo, window.Pulser.Hi, window.Overshoot.Lo, window.Overshoot.Hi)
		logger.Info(message, "main")
	}
	return window, nil
}

func acceptedRuns(config gaindrift.Configuration, db *sqlx.DB) ([]int, error) {
	if config.RunsFromDB {
		return gaindrift.GetAcceptedRunsFromDB(db, config.Channel, config.StartRun, config.EndRun, config.AcceptedCount)
	}
	return gaindrift.ReadRunList(config.RunListPath(), config.AcceptedCount)
}

// writeOutput updates the ROOT output file and, when enabled, exports the
// same results to HDF5.
func writeOutput(config gaindrift.Configuration, processor *gaindrift.Processor) error {
	store, err := gaindrift.OpenStore(config.OutputPath())
	if err != nil {
		return fmt.Errorf("Error opening output file: %w", err)
	}
	processor.Flush(store)
	if err := store.Close(); err != nil {
		return fmt.Errorf("Error writing output file: %w", err)
	}
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Output written to %s", config.OutputPath()), "main")
	}

	if !config.WriteHDF5 {
		return nil
	}
	writer, err := hdf5writer.NewWriter(config.HDF5OutputPath(), config.CompressionLvl)
	if err != nil {
		return fmt.Errorf("Error creating HDF5 file: %w", err)
	}
	err = writer.WriteSeries(processor.Series())
	if err == nil {
		err = writer.WriteSpectrum(gaindrift.SpectrumName(config.Channel), processor.Spectrum())
	}
	if cerr := writer.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return fmt.Errorf("Error writing HDF5 file: %w", err)
	}
	return nil
}
