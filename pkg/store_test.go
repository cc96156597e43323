package gaindrift

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rbase"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
)

func TestOpenStoreMissingFile(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "new.root"))
	require.NoError(t, err)
	assert.Empty(t, store.Names())
	assert.False(t, store.Has("anything"))
}

func TestOpenStoreNotROOT(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "bad.root")
	require.NoError(t, os.WriteFile(filename, []byte("not a root file"), 0o644))

	_, err := OpenStore(filename)
	var openErr *ErrOpenFile
	assert.ErrorAs(t, err, &openErr)
}

func TestStoreUpsertAndPut(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "out.root"))
	require.NoError(t, err)

	first := rhist.NewGraphFrom(hbook.NewS2D(hbook.Point2D{X: 1, Y: 1}))
	second := rhist.NewGraphFrom(hbook.NewS2D(hbook.Point2D{X: 2, Y: 2}))

	assert.False(t, store.Upsert("g", first))
	assert.True(t, store.Upsert("g", second))
	assert.Equal(t, 1, store.Count("g"))
	obj, ok := store.Get("g")
	require.True(t, ok)
	assert.Same(t, second, obj)

	store.Put("g", first)
	assert.Equal(t, 2, store.Count("g"))
	obj, _ = store.Get("g")
	assert.Same(t, first, obj)

	assert.Equal(t, 2, store.Delete("g"))
	assert.False(t, store.Has("g"))
}

func TestStoreWrongClass(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "out.root"))
	require.NoError(t, err)

	store.Put("h", rhist.NewH1DFrom(hbook.NewH1D(10, 0, 10)))
	_, err = store.Graph("h")
	assert.Error(t, err)
	_, err = store.H1D("h")
	assert.NoError(t, err)
	_, err = store.H1D("missing")
	assert.Error(t, err)
}

func TestStoreKeepsExistingObjects(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "out.root")
	f, err := groot.Create(filename)
	require.NoError(t, err)
	require.NoError(t, f.Put("calib2d", rhist.NewH2DFrom(hbook.NewH2D(10, 0, 10, 10, 0, 10))))
	require.NoError(t, f.Put("note", rbase.NewObjString("pulser calibration")))
	require.NoError(t, f.Close())

	store, err := OpenStore(filename)
	require.NoError(t, err)
	assert.Equal(t, []string{"calib2d", "note"}, store.Names())
	store.Upsert("pulserAvg_Ch112", rhist.NewGraphFrom(hbook.NewS2D(hbook.Point2D{X: 1, Y: 2})))
	require.NoError(t, store.Close())

	f, err = groot.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	classes := make(map[string]string)
	for _, key := range f.Keys() {
		classes[key.Name()] = key.ClassName()
	}
	assert.Equal(t, map[string]string{
		"calib2d":         "TH2D",
		"note":            "TObjString",
		"pulserAvg_Ch112": "TGraph",
	}, classes)

	obj, err := f.Get("note")
	require.NoError(t, err)
	assert.Equal(t, "pulser calibration", obj.(*rbase.ObjString).String())
}

func TestOpenStoreRefusesTrees(t *testing.T) {
	config := testConfiguration()
	config.DataDir = t.TempDir()
	writeRunFile(t, config, 1, []fakeEvent{{energy: 1, channel: 112, timestamp: 1}})

	_, err := OpenStore(config.RunFilePath(1))
	var unsupported *UnsupportedObjectError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, config.TreeName, unsupported.Name)
}
