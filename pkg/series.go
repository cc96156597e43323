package gaindrift

import (
	"fmt"

	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
)

// MarkerStyle is the ROOT marker attached to every curve (full down triangle).
const MarkerStyle = 23

type Series struct {
	Channel int
	Runs    []RunMetrics
}

func NewSeries(channel int) *Series {
	return &Series{Channel: channel}
}

// Append adds the metrics of one run. Runs are kept in the order they were
// processed, which is the order of the run list.
func (s *Series) Append(m RunMetrics) {
	s.Runs = append(s.Runs, m)
}

func (s *Series) Len() int {
	return len(s.Runs)
}

func CurveNames(channel int) [3]string {
	return [3]string{
		fmt.Sprintf("pulserAvg_Ch%d", channel),
		fmt.Sprintf("pulserArea_Ch%d", channel),
		fmt.Sprintf("pulserOvershootArea_Ch%d", channel),
	}
}

func SpectrumName(channel int) string {
	return fmt.Sprintf("spectrum_Ch%d", channel)
}

// Curves returns the mean position, pulser area and overshoot area versus run
// number. Runs without a mean position hold NaN in the first curve.
func (s *Series) Curves() []*hbook.S2D {
	n := len(s.Runs)
	points := [3][]hbook.Point2D{
		make([]hbook.Point2D, n),
		make([]hbook.Point2D, n),
		make([]hbook.Point2D, n),
	}
	for i, m := range s.Runs {
		x := float64(m.Run)
		points[0][i] = hbook.Point2D{X: x, Y: m.MeanPosition}
		points[1][i] = hbook.Point2D{X: x, Y: m.PulserIntegral}
		points[2][i] = hbook.Point2D{X: x, Y: m.OvershootIntegral}
	}

	names := CurveNames(s.Channel)
	curves := make([]*hbook.S2D, len(names))
	for i, name := range names {
		curve := hbook.NewS2D(points[i]...)
		curve.Annotation()["name"] = name
		curve.Annotation()["title"] = name
		curve.Annotation()["marker-style"] = MarkerStyle
		curves[i] = curve
	}
	return curves
}

// Flush stores the three curves, replacing any previous curve with the same
// name, and the aggregate spectrum. The spectrum is only replaced when
// upsertSpectrum is set; otherwise a new cycle is added next to the old one.
func (s *Series) Flush(store *Store, spectrum *hbook.H1D, upsertSpectrum bool) {
	for _, curve := range s.Curves() {
		name := curve.Annotation()["name"].(string)
		if store.Upsert(name, rhist.NewGraphFrom(curve)) {
			logger.Info(fmt.Sprintf("Removed TGraph %s and will re-write", name), "series")
		}
	}

	if spectrum == nil {
		return
	}
	name := SpectrumName(s.Channel)
	spectrum.Annotation()["name"] = name
	spectrum.Annotation()["title"] = name
	if upsertSpectrum {
		if store.Upsert(name, rhist.NewH1DFrom(spectrum)) {
			logger.Info(fmt.Sprintf("Removed TH1D %s and will re-write", name), "series")
		}
		return
	}
	store.Put(name, rhist.NewH1DFrom(spectrum))
}
