package gaindrift

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyWindow is returned when a run has no entries in its pulser window,
	// so the weighted mean position is undefined.
	ErrEmptyWindow = errors.New("empty pulser window")
	// ErrShortRunList is returned when the run list holds fewer runs than requested.
	ErrShortRunList = errors.New("not enough runs in run list")
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

// UsageError represents missing or malformed command line arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// InvalidChannelError is returned when a channel is not in the geometry table.
type InvalidChannelError struct {
	Channel int
	Valid   []int
}

func (e *InvalidChannelError) Error() string {
	valid := make([]string, len(e.Valid))
	for i, ch := range e.Valid {
		valid[i] = fmt.Sprint(ch)
	}
	return fmt.Sprintf("invalid channel %d. Only can use: %s", e.Channel, strings.Join(valid, ", "))
}

// InputListError represents an error reading the accepted runs list.
type InputListError struct {
	Filename string
	Err      error
}

func (e *InputListError) Error() string {
	return fmt.Sprintf("error reading run list %q: %v", e.Filename, e.Err)
}

func (e *InputListError) Unwrap() error {
	return e.Err
}

// RunUnavailableError represents a run whose event file cannot be opened or read.
type RunUnavailableError struct {
	Run  int
	Path string
	Err  error
}

func (e *RunUnavailableError) Error() string {
	return fmt.Sprintf("run %d unavailable (%s): %v", e.Run, e.Path, e.Err)
}

func (e *RunUnavailableError) Unwrap() error {
	return e.Err
}

// UnsupportedObjectError is returned when an output file holds an object the
// store cannot write back, such as a tree or a directory.
type UnsupportedObjectError struct {
	Filename  string
	Name      string
	ClassName string
}

func (e *UnsupportedObjectError) Error() string {
	return fmt.Sprintf("cannot update %s: %s %q cannot be rewritten", e.Filename, e.ClassName, e.Name)
}
