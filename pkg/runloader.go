package gaindrift

import (
	"fmt"
	"reflect"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"
)

// Binning is the fixed energy binning used for every run histogram and the
// aggregate spectrum.
type Binning struct {
	NBins int
	Min   float64
	Max   float64
}

func (b Binning) NewH1D() *hbook.H1D {
	return hbook.NewH1D(b.NBins, b.Min, b.Max)
}

func (b Binning) BinWidth() float64 {
	return (b.Max - b.Min) / float64(b.NBins)
}

func (b Binning) Contains(x float64) bool {
	return x >= b.Min && x < b.Max
}

// Selection keeps the events of one channel recorded before TimeCutoff.
type Selection struct {
	Channel    int
	TimeCutoff float64
}

func (s Selection) Accept(channel, timestamp float64) bool {
	return channel == float64(s.Channel) && timestamp < s.TimeCutoff
}

type RunLoader interface {
	Open(run int) (RunHandle, error)
}

// RunHandle is an open run event file. Scan calls fn with the energy of every
// event passing the selection.
type RunHandle interface {
	Scan(sel Selection, fn func(energy float64)) error
	Close() error
}

// Histogram fills a fresh energy histogram with the selected events of a run.
func Histogram(h RunHandle, sel Selection, binning Binning) (*hbook.H1D, error) {
	hist := binning.NewH1D()
	err := h.Scan(sel, func(energy float64) {
		hist.Fill(energy, 1)
	})
	if err != nil {
		return nil, err
	}
	return hist, nil
}

// ROOTLoader opens gatified run files and reads their event tree.
type ROOTLoader struct {
	config Configuration
}

func NewROOTLoader(config Configuration) *ROOTLoader {
	return &ROOTLoader{config: config}
}

func (l *ROOTLoader) Open(run int) (RunHandle, error) {
	path := l.config.RunFilePath(run)
	if l.config.Verbosity > 1 {
		logger.Info(fmt.Sprintf("Opening run %d: %s", run, path), "runloader")
	}
	file, err := groot.Open(path)
	if err != nil {
		return nil, &RunUnavailableError{Run: run, Path: path, Err: err}
	}

	obj, err := file.Get(l.config.TreeName)
	if err != nil {
		file.Close()
		return nil, &RunUnavailableError{Run: run, Path: path, Err: err}
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		file.Close()
		err := fmt.Errorf("object %q is a %T, not a tree", l.config.TreeName, obj)
		return nil, &RunUnavailableError{Run: run, Path: path, Err: err}
	}

	return &rootHandle{
		run:  run,
		path: path,
		file: file,
		tree: tree,
		branches: [3]string{
			l.config.EnergyBranch,
			l.config.ChannelBranch,
			l.config.TimestampBranch,
		},
	}, nil
}

type rootHandle struct {
	run      int
	path     string
	file     *riofs.File
	tree     rtree.Tree
	branches [3]string // energy, channel, timestamp
}

func (h *rootHandle) Scan(sel Selection, fn func(energy float64)) error {
	rvars, values, err := h.readVars()
	if err != nil {
		return &RunUnavailableError{Run: h.run, Path: h.path, Err: err}
	}

	reader, err := rtree.NewReader(h.tree, rvars)
	if err != nil {
		return &RunUnavailableError{Run: h.run, Path: h.path, Err: err}
	}
	defer reader.Close()

	var energies, channels, timestamps []float64
	err = reader.Read(func(ctx rtree.RCtx) error {
		energies = appendFloats(energies[:0], values[0])
		channels = appendFloats(channels[:0], values[1])
		timestamps = appendFloats(timestamps[:0], values[2])
		for i, energy := range energies {
			channel, ok1 := element(channels, i)
			timestamp, ok2 := element(timestamps, i)
			if !ok1 || !ok2 {
				return fmt.Errorf("entry %d: branch lengths differ (%d energies, %d channels, %d timestamps)",
					ctx.Entry, len(energies), len(channels), len(timestamps))
			}
			if sel.Accept(channel, timestamp) {
				fn(energy)
			}
		}
		return nil
	})
	if err != nil {
		return &RunUnavailableError{Run: h.run, Path: h.path, Err: err}
	}
	return nil
}

func (h *rootHandle) Close() error {
	return h.file.Close()
}

// readVars selects the energy, channel and timestamp branches, keeping the
// type the file declares. Count leaves of variable length arrays are added by
// the reader.
func (h *rootHandle) readVars() ([]rtree.ReadVar, [3]any, error) {
	var values [3]any
	all := rtree.NewReadVars(h.tree)
	byName := make(map[string]rtree.ReadVar, len(all))
	for _, rv := range all {
		byName[rv.Name] = rv
	}

	selected := make([]rtree.ReadVar, 0, len(h.branches))
	seen := make(map[string]bool)
	for i, name := range h.branches {
		rv, ok := byName[name]
		if !ok {
			return nil, values, fmt.Errorf("branch %q not found in tree %q", name, h.tree.Name())
		}
		values[i] = rv.Value
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, rv)
	}
	return selected, values, nil
}

func element(values []float64, i int) (float64, bool) {
	switch {
	case len(values) == 1:
		return values[0], true
	case i < len(values):
		return values[i], true
	}
	return 0, false
}

// appendFloats flattens a scalar or slice branch value into dst.
func appendFloats(dst []float64, ptr any) []float64 {
	switch v := ptr.(type) {
	case *float64:
		return append(dst, *v)
	case *[]float64:
		return append(dst, *v...)
	case *float32:
		return append(dst, float64(*v))
	case *int32:
		return append(dst, float64(*v))
	}

	rv := reflect.ValueOf(ptr).Elem()
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			dst = append(dst, scalarFloat(rv.Index(i)))
		}
	default:
		dst = append(dst, scalarFloat(rv))
	}
	return dst
}

func scalarFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
	}
	return 0
}
