package playerdata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/waste/pkg/player"
)

var (
	// ErrNotFound is returned when a location has no backing file
	ErrNotFound = errors.New("player not found")

	// ErrInvalidLocation is returned for locations that are not a plain
	// record file name
	ErrInvalidLocation = errors.New("invalid player location")
)

// Source represents a store of player records keyed by location
type Source interface {
	// Load reads the record at location.
	// Returns ErrNotFound if it doesn't exist and player.ErrCorruptRecord
	// if it cannot be decoded.
	Load(location string) (*player.Record, error)

	// Save persists r, assigning r.Location on first save, and returns the
	// location written
	Save(r *player.Record) (string, error)

	// Remove deletes the record at location.
	// Returns ErrNotFound if it doesn't exist.
	Remove(location string) error

	// List loads every record. Records that fail to load are reported in a
	// *ListError while the others are still returned.
	List() ([]*player.Record, error)
}

// FileError is a failure to load one record during List
type FileError struct {
	Location string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Location, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ListError aggregates the records List could not load
type ListError struct {
	Failures []*FileError
}

func (e *ListError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d player file(s) could not be loaded: %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *ListError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
