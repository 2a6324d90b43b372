package playerdata

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mmcdole/waste/pkg/catalog"
	"github.com/mmcdole/waste/pkg/logging"
	"github.com/mmcdole/waste/pkg/player"
)

// ErrNoSuchEntry is returned for roster indices out of range
var ErrNoSuchEntry = errors.New("no such roster entry")

// Repository is the working set of players shown to the user: the records
// loaded from a Source plus any created since, in display order.
type Repository struct {
	source Source
	cat    *catalog.Catalog

	mu      sync.RWMutex
	players []*player.Record
}

// NewRepository creates an empty Repository; call Refresh to fill it
func NewRepository(source Source, cat *catalog.Catalog) *Repository {
	return &Repository{
		source: source,
		cat:    cat,
	}
}

// Refresh replaces the working set with every record in the source.
// Records that fail to load are left out and reported through the
// returned *ListError.
func (c *Repository) Refresh() error {
	records, err := c.source.List()
	var listErr *ListError
	if err != nil && !errors.As(err, &listErr) {
		return err
	}

	c.mu.Lock()
	c.players = records
	c.mu.Unlock()

	return err
}

// Players returns the working set in display order
func (c *Repository) Players() []*player.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*player.Record, len(c.players))
	copy(out, c.players)
	return out
}

// Len returns the size of the working set
func (c *Repository) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.players)
}

// Get returns the record at index i
func (c *Repository) Get(i int) (*player.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.players) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchEntry, i)
	}
	return c.players[i], nil
}

// Find returns the index of the record stored at location
func (c *Repository) Find(location string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, r := range c.players {
		if r.Location == location {
			return i, true
		}
	}
	return -1, false
}

// Add creates a default player, saves it and appends it to the working set
func (c *Repository) Add() (*player.Record, error) {
	r := player.New(c.cat)
	if _, err := c.source.Save(r); err != nil {
		return nil, fmt.Errorf("saving new player: %w", err)
	}

	c.mu.Lock()
	c.players = append(c.players, r)
	c.mu.Unlock()

	logging.App.Info("Added player", "location", r.Location)
	return r, nil
}

// Save persists the record at index i
func (c *Repository) Save(i int) error {
	r, err := c.Get(i)
	if err != nil {
		return err
	}
	_, err = c.source.Save(r)
	return err
}

// Discard throws away unsaved edits of the record at index i by reloading
// it from the source. A record that was never saved goes back to defaults.
func (c *Repository) Discard(i int) error {
	r, err := c.Get(i)
	if err != nil {
		return err
	}

	var fresh *player.Record
	if r.Location == "" {
		fresh = player.New(c.cat)
	} else if fresh, err = c.source.Load(r.Location); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i < len(c.players) && c.players[i] == r {
		c.players[i] = fresh
	}
	return nil
}

// Delete drops r from the working set. With removeFile it also deletes the
// backing file first; ErrNotFound is returned, and the working set left
// unchanged, when r has no file. Without removeFile the file is kept and r
// shows up again on the next Refresh.
func (c *Repository) Delete(r *player.Record, removeFile bool) error {
	if removeFile {
		if r.Location == "" {
			return fmt.Errorf("%w: player %q was never saved", ErrNotFound, r.Name)
		}
		if err := c.source.Remove(r.Location); err != nil {
			return err
		}
		logging.App.Info("Deleted player file", "location", r.Location)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.players {
		if p == r {
			c.players = append(c.players[:i], c.players[i+1:]...)
			return nil
		}
	}
	if removeFile {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrNoSuchEntry, r.Name)
}
