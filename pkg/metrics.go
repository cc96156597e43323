package gaindrift

import (
	"math"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/stat"
)

// RunMetrics are the pulser statistics of one run. MeanValid is false when the
// pulser window is empty, in which case MeanPosition is NaN and must not be used.
type RunMetrics struct {
	Run               int
	MeanPosition      float64
	MeanValid         bool
	PulserIntegral    float64
	OvershootIntegral float64
}

func (m RunMetrics) Mean() (float64, error) {
	if !m.MeanValid {
		return math.NaN(), ErrEmptyWindow
	}
	return m.MeanPosition, nil
}

// FindBin returns the index of the bin containing x. Values outside the
// histogram range are clamped to the first or last bin.
func FindBin(h *hbook.H1D, x float64) int {
	n := h.Len()
	width := (h.XMax() - h.XMin()) / float64(n)
	idx := int(math.Floor((x - h.XMin()) / width))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// Integral sums the contents of bins lo to hi, both included.
func Integral(h *hbook.H1D, lo, hi int) float64 {
	sum := 0.0
	for _, bin := range h.Binning.Bins[lo : hi+1] {
		sum += bin.SumW()
	}
	return sum
}

// Extract computes the pulser statistics of a run histogram. Window edges are
// mapped to the bins that contain them and those edge bins are included.
func Extract(h *hbook.H1D, w ChannelWindow) RunMetrics {
	lo := FindBin(h, w.Pulser.Lo)
	hi := FindBin(h, w.Pulser.Hi)

	m := RunMetrics{
		MeanPosition:      math.NaN(),
		PulserIntegral:    Integral(h, lo, hi),
		OvershootIntegral: Integral(h, FindBin(h, w.Overshoot.Lo), FindBin(h, w.Overshoot.Hi)),
	}
	if m.PulserIntegral == 0 {
		return m
	}

	bins := h.Binning.Bins[lo : hi+1]
	centers := make([]float64, len(bins))
	weights := make([]float64, len(bins))
	for i, bin := range bins {
		centers[i] = bin.XMid()
		weights[i] = bin.SumW()
	}
	m.MeanPosition = stat.Mean(centers, weights)
	m.MeanValid = true
	return m
}
