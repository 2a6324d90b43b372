package playerdata

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mmcdole/waste/pkg/catalog"
	"github.com/mmcdole/waste/pkg/player"
)

// MemorySource implements Source using in-memory storage.
// Records are stored encoded, so callers never share state with the store.
type MemorySource struct {
	mu      sync.RWMutex
	cat     *catalog.Catalog
	players map[string][]byte
	next    int
}

// NewMemorySource creates a new MemorySource
func NewMemorySource(cat *catalog.Catalog) *MemorySource {
	return &MemorySource{
		cat:     cat,
		players: make(map[string][]byte),
	}
}

// Load implements Source
func (m *MemorySource) Load(location string) (*player.Record, error) {
	m.mu.RLock()
	data, exists := m.players[location]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	r, err := player.Unmarshal(m.cat, data)
	if err != nil {
		return nil, err
	}
	r.Location = location
	return r, nil
}

// Save implements Source
func (m *MemorySource) Save(r *player.Record) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	data, err := player.Marshal(r)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	location := r.Location
	for location == "" {
		m.next++
		candidate := fmt.Sprintf("%s%d%s", RecordPrefix, m.next, RecordExt)
		if _, taken := m.players[candidate]; !taken {
			location = candidate
		}
	}
	m.players[location] = data
	r.Location = location
	return location, nil
}

// Remove implements Source
func (m *MemorySource) Remove(location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[location]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	delete(m.players, location)
	return nil
}

// List implements Source
func (m *MemorySource) List() ([]*player.Record, error) {
	m.mu.RLock()
	locations := make([]string, 0, len(m.players))
	for location := range m.players {
		locations = append(locations, location)
	}
	m.mu.RUnlock()
	sort.Strings(locations)

	var records []*player.Record
	var failures []*FileError
	for _, location := range locations {
		r, err := m.Load(location)
		if err != nil {
			failures = append(failures, &FileError{Location: location, Err: err})
			continue
		}
		records = append(records, r)
	}
	if len(failures) > 0 {
		return records, &ListError{Failures: failures}
	}
	return records, nil
}

// Put stores raw file content at location, bypassing validation
func (m *MemorySource) Put(location string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[location] = data
}
