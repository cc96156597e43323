package hdf5writer

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	gaindrift "github.com/mjd-analysis/gaindrift_go/pkg"
	"go-hep.org/x/hep/hbook"
)

// Writer exports the pulser curves and the spectrum of one channel to HDF5.
// The file is truncated on creation, so every export replaces the previous one.
type Writer struct {
	File             *hdf5.File
	Filename         string
	SeriesGroup      *hdf5.Group
	SpectrumGroup    *hdf5.Group
	CompressionLevel int
	tables           []*hdf5.Dataset
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	file, err := openFile(filename)
	if err != nil {
		return nil, err
	}
	writer := &Writer{
		File:             file,
		Filename:         filename,
		CompressionLevel: compressionLevel,
	}
	writer.SeriesGroup, err = createGroup(file, "PulserStability")
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.SpectrumGroup, err = createGroup(file, "Spectrum")
	if err != nil {
		writer.SeriesGroup.Close()
		file.Close()
		return nil, err
	}
	return writer, nil
}

// WriteSeries writes one table per curve with the run number, the value and
// whether the value is defined.
func (w *Writer) WriteSeries(series *gaindrift.Series) error {
	names := gaindrift.CurveNames(series.Channel)
	rows := [3][]CurvePointHDF5{}
	for i := range rows {
		rows[i] = make([]CurvePointHDF5, len(series.Runs))
	}
	for i, m := range series.Runs {
		meanValid := int32(0)
		if m.MeanValid {
			meanValid = 1
		}
		rows[0][i] = CurvePointHDF5{run: int32(m.Run), value: m.MeanPosition, valid: meanValid}
		rows[1][i] = CurvePointHDF5{run: int32(m.Run), value: m.PulserIntegral, valid: 1}
		rows[2][i] = CurvePointHDF5{run: int32(m.Run), value: m.OvershootIntegral, valid: 1}
	}

	for i, name := range names {
		table, err := createTable(w.SeriesGroup, name, CurvePointHDF5{}, w.CompressionLevel)
		if err != nil {
			return err
		}
		w.tables = append(w.tables, table)
		if err := writeArrayToTable(table, &rows[i], 0); err != nil {
			return fmt.Errorf("error writing table %q: %w", name, err)
		}
	}
	return nil
}

func (w *Writer) WriteSpectrum(name string, spectrum *hbook.H1D) error {
	bins := make([]SpectrumBinHDF5, len(spectrum.Binning.Bins))
	for i, bin := range spectrum.Binning.Bins {
		bins[i] = SpectrumBinHDF5{binCenter: bin.XMid(), counts: bin.SumW()}
	}
	table, err := createTable(w.SpectrumGroup, name, SpectrumBinHDF5{}, w.CompressionLevel)
	if err != nil {
		return err
	}
	w.tables = append(w.tables, table)
	if err := writeArrayToTable(table, &bins, 0); err != nil {
		return fmt.Errorf("error writing table %q: %w", name, err)
	}
	return nil
}

func (w *Writer) Close() error {
	var errs []error
	for _, table := range w.tables {
		if err := table.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing table: %w", err))
		}
	}
	if err := w.SeriesGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing series group: %w", err))
	}
	if err := w.SpectrumGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing spectrum group: %w", err))
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
