package gaindrift

import (
	"errors"
	"fmt"

	"go-hep.org/x/hep/hbook"
)

// Summary records what happened to every run of the list.
type Summary struct {
	Processed   []int
	Skipped     []int
	EmptyWindow []int
}

// Processor walks the run list in order, one open run file at a time.
type Processor struct {
	config   Configuration
	window   ChannelWindow
	loader   RunLoader
	series   *Series
	spectrum *hbook.H1D
	summary  Summary
}

func NewProcessor(config Configuration, window ChannelWindow, loader RunLoader) *Processor {
	spectrum := config.Binning().NewH1D()
	return &Processor{
		config:   config,
		window:   window,
		loader:   loader,
		series:   NewSeries(window.Channel),
		spectrum: spectrum,
	}
}

func (p *Processor) Series() *Series {
	return p.series
}

// Spectrum is the energy histogram of all processed runs together.
func (p *Processor) Spectrum() *hbook.H1D {
	return p.spectrum
}

func (p *Processor) Process(runs []int) (Summary, error) {
	for i, run := range runs {
		if p.config.Verbosity > 0 {
			logger.Info(fmt.Sprintf("Processing run %d (%d/%d)", run, i+1, len(runs)), "pipeline")
		}
		_, err := p.ProcessRun(run)
		if err == nil {
			continue
		}
		var unavailable *RunUnavailableError
		if errors.As(err, &unavailable) && p.config.SkipUnavailable {
			logger.Error(fmt.Sprintf("skipping run %d: %v", run, err))
			p.summary.Skipped = append(p.summary.Skipped, run)
			continue
		}
		return p.summary, err
	}
	return p.summary, nil
}

// ProcessRun reduces one run to its pulser metrics and adds its events to the
// aggregate spectrum. Nothing is accumulated if the run cannot be read.
func (p *Processor) ProcessRun(run int) (RunMetrics, error) {
	hist, err := p.readRun(run)
	if err != nil {
		return RunMetrics{}, err
	}
	p.spectrum = hbook.AddH1D(p.spectrum, hist)

	metrics := Extract(hist, p.window)
	metrics.Run = run
	if !metrics.MeanValid {
		logger.Error(fmt.Sprintf("run %d: %v, no mean position for channel %d", run, ErrEmptyWindow, p.window.Channel))
		p.summary.EmptyWindow = append(p.summary.EmptyWindow, run)
	}
	if p.config.Verbosity > 0 {
		message := fmt.Sprintf("Run %d: %d events, mean %.1f, area %.0f, overshoot area %.0f",
			run, hist.Entries(), metrics.MeanPosition, metrics.PulserIntegral, metrics.OvershootIntegral)
		logger.Info(message, "pipeline")
	}

	p.series.Append(metrics)
	p.summary.Processed = append(p.summary.Processed, run)
	return metrics, nil
}

func (p *Processor) readRun(run int) (hist *hbook.H1D, err error) {
	handle, err := p.loader.Open(run)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := handle.Close(); cerr != nil && err == nil {
			hist = nil
			err = &RunUnavailableError{Run: run, Path: p.config.RunFilePath(run), Err: cerr}
		}
	}()

	return Histogram(handle, p.config.Selection(), p.config.Binning())
}

// Flush writes the curves and the aggregate spectrum to the store.
func (p *Processor) Flush(store *Store) {
	p.series.Flush(store, p.spectrum, p.config.UpsertSpectrum)
}
