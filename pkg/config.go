package gaindrift

import (
	"fmt"
	"path/filepath"
)

type Configuration struct {
	Channel         int     `json:"channel"`
	AcceptedCount   int     `json:"accepted_count"`
	StartRun        int     `json:"start_run"`
	EndRun          int     `json:"end_run"`
	RunOffset       int     `json:"run_offset"`
	Partition       string  `json:"partition"`
	DataDir         string  `json:"data_dir"`
	FileTemplate    string  `json:"file_template"`
	TreeName        string  `json:"tree_name"`
	EnergyBranch    string  `json:"energy_branch"`
	ChannelBranch   string  `json:"channel_branch"`
	TimestampBranch string  `json:"timestamp_branch"`
	TimeCutoff      float64 `json:"time_cutoff"`
	NBins           int     `json:"nbins"`
	EnergyMin       float64 `json:"energy_min"`
	EnergyMax       float64 `json:"energy_max"`
	WindowHalfWidth float64 `json:"window_half_width"`
	RunListFile     string  `json:"run_list_file"`
	FileOut         string  `json:"file_out"`
	SkipUnavailable bool    `json:"skip_unavailable"`
	UpsertSpectrum  bool    `json:"upsert_spectrum"`
	RunsFromDB      bool    `json:"runs_from_db"`
	GeometryFromDB  bool    `json:"geometry_from_db"`
	Host            string  `json:"host"`
	User            string  `json:"user"`
	Passwd          string  `json:"pass"`
	DBName          string  `json:"dbname"`
	WriteHDF5       bool    `json:"write_hdf5"`
	FileOutHDF5     string  `json:"file_out_hdf5"`
	CompressionLvl  int     `json:"compression_level"`
	PlotDir         string  `json:"plot_dir"`
	Verbosity       int     `json:"verbosity"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		StartRun:        4494,
		EndRun:          5331,
		RunOffset:       40000000,
		Partition:       "P3CK3",
		DataDir:         ".",
		FileTemplate:    "surfprot/data/gatified/%s/mjd_run%d.root",
		TreeName:        "mjdTree",
		EnergyBranch:    "energy",
		ChannelBranch:   "channel",
		TimestampBranch: "timestamp",
		TimeCutoff:      300e8,
		NBins:           30000,
		EnergyMin:       0,
		EnergyMax:       3000e3,
		WindowHalfWidth: 3e3,
		Host:            "localhost",
		User:            "mjdreader",
		DBName:          "MJD",
		CompressionLvl:  4,
	}
}

func (c Configuration) Binning() Binning {
	return Binning{NBins: c.NBins, Min: c.EnergyMin, Max: c.EnergyMax}
}

func (c Configuration) Selection() Selection {
	return Selection{Channel: c.Channel, TimeCutoff: c.TimeCutoff}
}

// RunListPath is the accepted runs file, derived from the channel and run range
// unless set explicitly.
func (c Configuration) RunListPath() string {
	if c.RunListFile != "" {
		return c.RunListFile
	}
	return RunListFilename(c.Channel, c.StartRun, c.EndRun)
}

func (c Configuration) OutputPath() string {
	if c.FileOut != "" {
		return c.FileOut
	}
	return fmt.Sprintf("PulserStability_Runs_%d_%d.root", c.StartRun, c.EndRun)
}

func (c Configuration) HDF5OutputPath() string {
	if c.FileOutHDF5 != "" {
		return c.FileOutHDF5
	}
	return fmt.Sprintf("PulserStability_Runs_%d_%d_Ch%d.h5", c.StartRun, c.EndRun, c.Channel)
}

// RunFilePath locates the event file of a run: partition, run offset and run
// number are substituted into FileTemplate under DataDir.
func (c Configuration) RunFilePath(run int) string {
	name := fmt.Sprintf(c.FileTemplate, c.Partition, run+c.RunOffset)
	return filepath.Join(c.DataDir, name)
}
