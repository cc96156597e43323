package gaindrift

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvent struct {
	energy    float64
	channel   float64
	timestamp float64
}

type fakeLoader struct {
	runs map[int][]fakeEvent
	// runs whose scan fails after delivering their events
	scanErrors map[int]error
	open   int
	opened []int
	closed []int
}

func (l *fakeLoader) Open(run int) (RunHandle, error) {
	events, ok := l.runs[run]
	if !ok {
		return nil, &RunUnavailableError{Run: run, Path: fmt.Sprintf("run%d.root", run), Err: errors.New("no such file")}
	}
	if l.open != 0 {
		return nil, fmt.Errorf("run %d opened while another run is open", run)
	}
	l.open++
	l.opened = append(l.opened, run)
	return &fakeHandle{loader: l, run: run, events: events, scanErr: l.scanErrors[run]}, nil
}

type fakeHandle struct {
	loader  *fakeLoader
	run     int
	events  []fakeEvent
	scanErr error
}

func (h *fakeHandle) Scan(sel Selection, fn func(float64)) error {
	for _, e := range h.events {
		if sel.Accept(e.channel, e.timestamp) {
			fn(e.energy)
		}
	}
	return h.scanErr
}

func (h *fakeHandle) Close() error {
	h.loader.open--
	h.loader.closed = append(h.loader.closed, h.run)
	return nil
}

func pulserEvents(channel float64, energies ...float64) []fakeEvent {
	events := make([]fakeEvent, len(energies))
	for i, e := range energies {
		events[i] = fakeEvent{energy: e, channel: channel, timestamp: float64(i)}
	}
	return events
}

func testConfiguration() Configuration {
	config := DefaultConfiguration()
	config.Channel = 112
	config.AcceptedCount = 3
	return config
}

func TestProcessKeepsListOrder(t *testing.T) {
	loader := &fakeLoader{runs: map[int][]fakeEvent{
		1000: pulserEvents(112, 280050, 280050),
		1002: pulserEvents(112, 280050),
		1005: pulserEvents(112, 280050, 280050, 280050),
	}}
	p := NewProcessor(testConfiguration(), channel112(t), loader)

	summary, err := p.Process([]int{1002, 1000, 1005})
	require.NoError(t, err)
	assert.Equal(t, []int{1002, 1000, 1005}, summary.Processed)
	assert.Equal(t, []int{1002, 1000, 1005}, loader.opened)
	assert.Equal(t, []int{1002, 1000, 1005}, loader.closed)
	assert.Equal(t, 0, loader.open)

	require.Equal(t, 3, p.Series().Len())
	for i, want := range []float64{1, 2, 3} {
		assert.Equal(t, want, p.Series().Runs[i].PulserIntegral)
	}
	assert.Equal(t, 6.0, p.Spectrum().Binning.Bins[2800].SumW())
}

func TestProcessSelection(t *testing.T) {
	config := testConfiguration()
	loader := &fakeLoader{runs: map[int][]fakeEvent{
		1: {
			{energy: 280050, channel: 112, timestamp: 1},
			{energy: 280050, channel: 114, timestamp: 1},
			{energy: 280050, channel: 112, timestamp: config.TimeCutoff},
			{energy: 22050, channel: 112, timestamp: config.TimeCutoff - 1},
		},
	}}
	p := NewProcessor(config, channel112(t), loader)

	m, err := p.ProcessRun(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.PulserIntegral)
	assert.Equal(t, 1.0, m.OvershootIntegral)
	assert.Equal(t, 2.0, spectrumTotal(p))
}

func TestProcessUnavailableRun(t *testing.T) {
	runs := map[int][]fakeEvent{
		1: pulserEvents(112, 280050),
		3: pulserEvents(112, 280050),
	}

	t.Run("abort", func(t *testing.T) {
		loader := &fakeLoader{runs: runs}
		p := NewProcessor(testConfiguration(), channel112(t), loader)
		summary, err := p.Process([]int{1, 2, 3})

		var unavailable *RunUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, 2, unavailable.Run)
		assert.Equal(t, []int{1}, summary.Processed)
		assert.Equal(t, 1.0, spectrumTotal(p))
	})

	t.Run("skip", func(t *testing.T) {
		config := testConfiguration()
		config.SkipUnavailable = true
		loader := &fakeLoader{runs: runs}
		p := NewProcessor(config, channel112(t), loader)
		summary, err := p.Process([]int{1, 2, 3})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, summary.Processed)
		assert.Equal(t, []int{2}, summary.Skipped)
		assert.Equal(t, 2, p.Series().Len())
		assert.Equal(t, 2.0, spectrumTotal(p))
	})
}

func TestProcessEmptyWindow(t *testing.T) {
	loader := &fakeLoader{runs: map[int][]fakeEvent{
		1: pulserEvents(112, 280050),
		2: pulserEvents(112, 1500e3),
	}}
	p := NewProcessor(testConfiguration(), channel112(t), loader)

	summary, err := p.Process([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, summary.Processed)
	assert.Equal(t, []int{2}, summary.EmptyWindow)

	_, err = p.Series().Runs[1].Mean()
	assert.ErrorIs(t, err, ErrEmptyWindow)
}

func TestProcessScanFailureReleasesHandle(t *testing.T) {
	scanErr := &RunUnavailableError{Run: 2, Path: "run2.root", Err: errors.New("corrupt basket")}
	loader := &fakeLoader{
		runs: map[int][]fakeEvent{
			1: pulserEvents(112, 280050),
			2: pulserEvents(112, 280050, 280050),
			3: pulserEvents(112, 280050),
		},
		scanErrors: map[int]error{2: scanErr},
	}

	t.Run("abort", func(t *testing.T) {
		loader.opened, loader.closed = nil, nil
		p := NewProcessor(testConfiguration(), channel112(t), loader)
		_, err := p.Process([]int{1, 2, 3})

		assert.ErrorIs(t, err, scanErr)
		assert.Equal(t, []int{1, 2}, loader.closed)
		assert.Equal(t, 0, loader.open)
		assert.Equal(t, 1, p.Series().Len())
		assert.Equal(t, 1.0, spectrumTotal(p))
	})

	t.Run("skip", func(t *testing.T) {
		loader.opened, loader.closed = nil, nil
		config := testConfiguration()
		config.SkipUnavailable = true
		p := NewProcessor(config, channel112(t), loader)
		summary, err := p.Process([]int{1, 2, 3})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, loader.closed)
		assert.Equal(t, 0, loader.open)
		assert.Equal(t, []int{2}, summary.Skipped)
		assert.Equal(t, []int{1, 3}, summary.Processed)
		assert.Equal(t, 2, p.Series().Len())
		assert.Equal(t, 2.0, spectrumTotal(p))
	})
}

func spectrumTotal(p *Processor) float64 {
	return Integral(p.Spectrum(), 0, p.Spectrum().Len()-1)
}

func TestSpectrumMatchesRunHistograms(t *testing.T) {
	loader := &fakeLoader{runs: map[int][]fakeEvent{
		1: pulserEvents(112, 280050, 22050),
		2: pulserEvents(112, 280050, 1500e3),
	}}
	p := NewProcessor(testConfiguration(), channel112(t), loader)
	_, err := p.Process([]int{1, 2})
	require.NoError(t, err)

	spectrum := p.Spectrum()
	assert.Equal(t, 30000, spectrum.Len())
	assert.Equal(t, 2.0, spectrum.Binning.Bins[FindBin(spectrum, 280050)].SumW())
	assert.Equal(t, 1.0, spectrum.Binning.Bins[FindBin(spectrum, 22050)].SumW())
	assert.Equal(t, 1.0, spectrum.Binning.Bins[FindBin(spectrum, 1500e3)].SumW())
	assert.Equal(t, 4.0, spectrumTotal(p))
}

func TestProcessorFlushSpectrumCycles(t *testing.T) {
	loader := &fakeLoader{runs: map[int][]fakeEvent{1: pulserEvents(112, 280050)}}

	config := testConfiguration()
	require.False(t, config.UpsertSpectrum)
	p := NewProcessor(config, channel112(t), loader)
	_, err := p.Process([]int{1})
	require.NoError(t, err)

	store := &Store{Filename: "memory"}
	p.Flush(store)
	p.Flush(store)
	assert.Equal(t, 2, store.Count(SpectrumName(112)))
	assert.Equal(t, 1, store.Count(CurveNames(112)[0]))

	config.UpsertSpectrum = true
	p = NewProcessor(config, channel112(t), loader)
	_, err = p.Process([]int{1})
	require.NoError(t, err)

	store = &Store{Filename: "memory"}
	p.Flush(store)
	p.Flush(store)
	assert.Equal(t, 1, store.Count(SpectrumName(112)))
}
