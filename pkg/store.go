package gaindrift

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
)

type storeEntry struct {
	name string
	obj  root.Object
}

// Store is a ROOT output file opened in update mode. Every existing object is
// loaded on open and written back unchanged on Close. Files holding trees or
// directories cannot be rewritten and are refused.
type Store struct {
	Filename string
	entries  []storeEntry
}

func OpenStore(filename string) (*Store, error) {
	store := &Store{Filename: filename}
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return store, nil
	}

	file, err := groot.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()

	for _, key := range file.Keys() {
		obj, err := key.Object()
		if err != nil {
			return nil, fmt.Errorf("error reading %q from %s: %w", key.Name(), filename, err)
		}
		switch obj.(type) {
		case rtree.Tree, riofs.Directory:
			return nil, &UnsupportedObjectError{Filename: filename, Name: key.Name(), ClassName: key.ClassName()}
		}
		store.entries = append(store.entries, storeEntry{name: key.Name(), obj: obj})
	}
	return store, nil
}

func (s *Store) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.name
	}
	return names
}

func (s *Store) Count(name string) int {
	n := 0
	for _, e := range s.entries {
		if e.name == name {
			n++
		}
	}
	return n
}

func (s *Store) Has(name string) bool {
	return s.Count(name) > 0
}

// Get returns the most recently written object stored under name.
func (s *Store) Get(name string) (root.Object, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].name == name {
			return s.entries[i].obj, true
		}
	}
	return nil, false
}

// Delete removes every object stored under name and returns how many were removed.
func (s *Store) Delete(name string) int {
	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if e.name == name {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed
}

// Put appends obj under name, keeping any object already stored with that name.
func (s *Store) Put(name string, obj root.Object) {
	s.entries = append(s.entries, storeEntry{name: name, obj: obj})
}

// Upsert replaces every object stored under name by obj. It reports whether
// something was replaced.
func (s *Store) Upsert(name string, obj root.Object) bool {
	removed := s.Delete(name)
	s.Put(name, obj)
	return removed > 0
}

func (s *Store) Graph(name string) (*hbook.S2D, error) {
	obj, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("no object %q in %s", name, s.Filename)
	}
	graph, ok := obj.(rhist.Graph)
	if !ok {
		return nil, fmt.Errorf("object %q in %s is a %s, not a graph", name, s.Filename, obj.Class())
	}
	return rootcnv.S2D(graph), nil
}

func (s *Store) H1D(name string) (*hbook.H1D, error) {
	obj, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("no object %q in %s", name, s.Filename)
	}
	h1, ok := obj.(rhist.H1)
	if !ok {
		return nil, fmt.Errorf("object %q in %s is a %s, not a 1D histogram", name, s.Filename, obj.Class())
	}
	return rootcnv.H1D(h1), nil
}

// Close writes every stored object to a temporary file which then replaces
// the output file.
func (s *Store) Close() error {
	tmp := s.Filename + ".tmp"
	file, err := groot.Create(tmp)
	if err != nil {
		return &ErrOpenFile{Filename: tmp, Err: err}
	}

	var errs []error
	for _, e := range s.entries {
		if err := file.Put(e.name, e.obj); err != nil {
			errs = append(errs, fmt.Errorf("error writing %q: %w", e.name, err))
		}
	}
	if err := file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file %s: %w", tmp, err))
	}
	if len(errs) > 0 {
		os.Remove(tmp)
		return errors.Join(errs...)
	}
	return os.Rename(tmp, s.Filename)
}
