package gaindrift

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var curveLabels = [3]string{"mean pulser position", "pulser area", "pulser overshoot area"}

// SavePlots draws the three curves and the spectrum as PNG files in dir and
// returns the files written.
func SavePlots(dir string, series *Series, spectrum *hbook.H1D, window ChannelWindow) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating plot directory: %w", err)
	}

	var files []string
	for i, curve := range series.Curves() {
		name := curve.Annotation()["name"].(string)
		p := hplot.New()
		p.Title.Text = name
		p.X.Label.Text = "run"
		p.Y.Label.Text = curveLabels[i]

		finite := finitePoints(curve)
		if finite.Len() > 0 {
			s := hplot.NewS2D(finite)
			s.GlyphStyle.Shape = draw.TriangleGlyph{}
			s.GlyphStyle.Radius = vg.Points(3)
			p.Add(s)
		}
		p.Add(hplot.NewGrid())

		fname := filepath.Join(dir, name+".png")
		if err := p.Save(6*vg.Inch, 4*vg.Inch, fname); err != nil {
			return files, fmt.Errorf("error saving plot %s: %w", fname, err)
		}
		files = append(files, fname)
	}

	if spectrum == nil {
		return files, nil
	}
	name := SpectrumName(series.Channel)
	p := hplot.New()
	p.Title.Text = name
	p.X.Label.Text = "energy"
	p.Y.Label.Text = "entries"
	p.Add(hplot.NewH1D(spectrum))

	heights := make([]float64, len(spectrum.Binning.Bins))
	for i, bin := range spectrum.Binning.Bins {
		heights[i] = bin.SumW()
	}
	ymax := floats.Max(heights)
	for _, edge := range []struct {
		x   float64
		col color.Color
	}{
		{window.Pulser.Lo, color.RGBA{R: 200, A: 255}},
		{window.Pulser.Hi, color.RGBA{R: 200, A: 255}},
		{window.Overshoot.Lo, color.RGBA{B: 200, A: 255}},
		{window.Overshoot.Hi, color.RGBA{B: 200, A: 255}},
	} {
		line, err := plotter.NewLine(plotter.XYs{{X: edge.x, Y: 0}, {X: edge.x, Y: ymax}})
		if err != nil {
			return files, fmt.Errorf("error drawing window edge: %w", err)
		}
		line.Color = edge.col
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
	}

	fname := filepath.Join(dir, name+".png")
	if err := p.Save(6*vg.Inch, 4*vg.Inch, fname); err != nil {
		return files, fmt.Errorf("error saving plot %s: %w", fname, err)
	}
	return append(files, fname), nil
}

func finitePoints(curve *hbook.S2D) *hbook.S2D {
	finite := hbook.NewS2D()
	for i := 0; i < curve.Len(); i++ {
		x, y := curve.XY(i)
		if math.IsNaN(y) {
			continue
		}
		finite.Fill(hbook.Point2D{X: x, Y: y})
	}
	return finite
}
