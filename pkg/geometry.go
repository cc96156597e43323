package gaindrift

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Window is an energy range around an expected feature.
type Window struct {
	Lo float64
	Hi float64
}

func (w Window) Overlaps(o Window) bool {
	return w.Lo <= o.Hi && o.Lo <= w.Hi
}

type ChannelWindow struct {
	Channel   int
	Pulser    Window
	Overshoot Window
}

// ChannelGeometry holds the approximate pulser and pulser overshoot positions
// of one detector channel.
type ChannelGeometry struct {
	PulserPosition    float64 `db:"PulserPosition"`
	OvershootPosition float64 `db:"OvershootPosition"`
}

type GeometryTable map[int]ChannelGeometry

func DefaultGeometry() GeometryTable {
	return GeometryTable{
		112: {PulserPosition: 280e3, OvershootPosition: 22e3},
		114: {PulserPosition: 1344e3, OvershootPosition: 108e3},
		118: {PulserPosition: 1393e3, OvershootPosition: 116e3},
		144: {PulserPosition: 37.5e3, OvershootPosition: 3.15e3},
		146: {PulserPosition: 1350e3, OvershootPosition: 110e3},
		148: {PulserPosition: 1361e3, OvershootPosition: 113e3},
	}
}

func (g GeometryTable) Channels() []int {
	channels := make([]int, 0, len(g))
	for ch := range g {
		channels = append(channels, ch)
	}
	slices.Sort(channels)
	return channels
}

func (g GeometryTable) Resolve(channel int, halfWidth float64) (ChannelWindow, error) {
	geometry, ok := g[channel]
	if !ok {
		return ChannelWindow{}, &InvalidChannelError{Channel: channel, Valid: g.Channels()}
	}
	return ChannelWindow{
		Channel: channel,
		Pulser: Window{
			Lo: geometry.PulserPosition - halfWidth,
			Hi: geometry.PulserPosition + halfWidth,
		},
		Overshoot: Window{
			Lo: geometry.OvershootPosition - halfWidth,
			Hi: geometry.OvershootPosition + halfWidth,
		},
	}, nil
}

// Validate checks both windows are well formed and lie inside the histogram domain.
func (cw ChannelWindow) Validate(binning Binning) error {
	for _, w := range []struct {
		name   string
		window Window
	}{{"pulser", cw.Pulser}, {"overshoot", cw.Overshoot}} {
		if w.window.Lo >= w.window.Hi {
			return fmt.Errorf("channel %d: empty %s window [%g, %g)", cw.Channel, w.name, w.window.Lo, w.window.Hi)
		}
		if !binning.Contains(w.window.Lo) || !binning.Contains(w.window.Hi) {
			return fmt.Errorf("channel %d: %s window [%g, %g) outside histogram range [%g, %g)",
				cw.Channel, w.name, w.window.Lo, w.window.Hi, binning.Min, binning.Max)
		}
	}
	return nil
}
