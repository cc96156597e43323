package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	gaindrift "github.com/mjd-analysis/gaindrift_go/pkg"
)

// LoadConfiguration builds the configuration from the defaults, the optional
// JSON file and the environment (a .env file in the working directory is
// loaded first). MJDDATADIR sets the default data directory, GAINDRIFT_DB_*
// variables override the database settings of the file.
func LoadConfiguration(filename string) (gaindrift.Configuration, error) {
	config := gaindrift.DefaultConfiguration()

	// Missing .env is fine, the environment may be set by the batch system
	_ = godotenv.Load()

	if dataDir := os.Getenv("MJDDATADIR"); dataDir != "" {
		config.DataDir = dataDir
	}

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return config, err
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("error parsing %s: %w", filename, err)
		}
	}

	overrideFromEnv(&config.Host, "GAINDRIFT_DB_HOST")
	overrideFromEnv(&config.User, "GAINDRIFT_DB_USER")
	overrideFromEnv(&config.Passwd, "GAINDRIFT_DB_PASS")
	overrideFromEnv(&config.DBName, "GAINDRIFT_DB_NAME")

	config.DataDir = os.ExpandEnv(config.DataDir)
	return config, nil
}

func overrideFromEnv(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

func printConfiguration(config gaindrift.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Channel: %d", config.Channel), "config")
	logger.Info(fmt.Sprintf("Accepted runs: %d", config.AcceptedCount), "config")
	logger.Info(fmt.Sprintf("Run range: %d - %d", config.StartRun, config.EndRun), "config")
	logger.Info(fmt.Sprintf("Run list: %s", config.RunListPath()), "config")
	logger.Info(fmt.Sprintf("Data dir: %s", config.DataDir), "config")
	logger.Info(fmt.Sprintf("Partition: %s", config.Partition), "config")
	logger.Info(fmt.Sprintf("Run offset: %d", config.RunOffset), "config")
	logger.Info(fmt.Sprintf("File template: %s", config.FileTemplate), "config")
	logger.Info(fmt.Sprintf("Tree: %s (%s, %s, %s)", config.TreeName,
		config.EnergyBranch, config.ChannelBranch, config.TimestampBranch), "config")
	logger.Info(fmt.Sprintf("Time cutoff: %g", config.TimeCutoff), "config")
	binning := config.Binning()
	logger.Info(fmt.Sprintf("Binning: %d bins [%g, %g), width %g", binning.NBins, binning.Min, binning.Max, binning.BinWidth()), "config")
	logger.Info(fmt.Sprintf("Window half width: %g", config.WindowHalfWidth), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.OutputPath()), "config")
	logger.Info(fmt.Sprintf("Skip unavailable runs: %t", config.SkipUnavailable), "config")
	logger.Info(fmt.Sprintf("Upsert spectrum: %t", config.UpsertSpectrum), "config")
	logger.Info(fmt.Sprintf("Runs from DB: %t", config.RunsFromDB), "config")
	logger.Info(fmt.Sprintf("Geometry from DB: %t", config.GeometryFromDB), "config")
	if config.RunsFromDB || config.GeometryFromDB {
		logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
		logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	}
	logger.Info(fmt.Sprintf("Write HDF5: %t", config.WriteHDF5), "config")
	if config.WriteHDF5 {
		logger.Info(fmt.Sprintf("File out HDF5: %s", config.HDF5OutputPath()), "config")
		logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLvl), "config")
	}
	logger.Info(fmt.Sprintf("Plot dir: %s", config.PlotDir), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}
