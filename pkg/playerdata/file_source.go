package playerdata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/mmcdole/waste/pkg/catalog"
	"github.com/mmcdole/waste/pkg/logging"
	"github.com/mmcdole/waste/pkg/player"
)

const (
	// RecordPrefix and RecordExt make up generated locations: player_<N>.json
	RecordPrefix = "player_"
	RecordExt    = ".json"
)

// FileSource implements Source with one JSON file per player
type FileSource struct {
	// PlayersDir is the directory holding the player files
	PlayersDir string

	fs  afero.Fs
	cat *catalog.Catalog
}

// NewFileSource creates a new FileSource over fs
func NewFileSource(fs afero.Fs, playersDir string, cat *catalog.Catalog) *FileSource {
	return &FileSource{
		PlayersDir: playersDir,
		fs:         fs,
		cat:        cat,
	}
}

// getPlayerPath returns the full path to a player file
func (s *FileSource) getPlayerPath(location string) (string, error) {
	if location == "" ||
		location != filepath.Base(location) ||
		strings.HasPrefix(location, ".") ||
		filepath.Ext(location) != RecordExt {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}
	return filepath.Join(s.PlayersDir, location), nil
}

// Load implements Source
func (s *FileSource) Load(location string) (*player.Record, error) {
	path, err := s.getPlayerPath(location)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("reading player file: %w", err)
	}

	r, err := player.Unmarshal(s.cat, data)
	if err != nil {
		var cerr *player.CorruptRecordError
		if errors.As(err, &cerr) {
			cerr.Location = location
		}
		logging.Audit.LogOp("load", location, "corrupt", "error", err)
		return nil, err
	}
	r.Location = location
	return r, nil
}

// Save implements Source. The file is written to a temporary name in the
// players directory and renamed over the previous version, so an
// interrupted save leaves the old file intact.
func (s *FileSource) Save(r *player.Record) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	data, err := player.Marshal(r)
	if err != nil {
		return "", err
	}

	if err := s.fs.MkdirAll(s.PlayersDir, 0755); err != nil {
		return "", fmt.Errorf("creating players directory: %w", err)
	}

	location := r.Location
	if location == "" {
		if location, err = s.nextLocation(); err != nil {
			return "", err
		}
	}
	path, err := s.getPlayerPath(location)
	if err != nil {
		return "", err
	}

	if err := s.atomicWrite(path, data); err != nil {
		logging.Audit.LogOp("save", location, "error", "error", err)
		return "", fmt.Errorf("saving %s: %w", location, err)
	}

	if r.Location == "" {
		logging.App.Info("Assigned player location", "location", location, "name", r.Name)
	}
	r.Location = location
	logging.Audit.LogOp("save", location, "success", "name", r.Name)
	return location, nil
}

// Remove implements Source
func (s *FileSource) Remove(location string) error {
	path, err := s.getPlayerPath(location)
	if err != nil {
		return err
	}

	if _, err := s.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			logging.Audit.LogOp("remove", location, "not_found")
			return fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return fmt.Errorf("checking player file: %w", err)
	}
	if err := s.fs.Remove(path); err != nil {
		logging.Audit.LogOp("remove", location, "error", "error", err)
		return fmt.Errorf("removing player file: %w", err)
	}

	logging.Audit.LogOp("remove", location, "success")
	return nil
}

// List implements Source. A file that fails to load does not stop the
// listing; it is reported in the returned *ListError.
func (s *FileSource) List() ([]*player.Record, error) {
	locations, err := s.recordFiles()
	if err != nil {
		return nil, err
	}

	records := make([]*player.Record, 0, len(locations))
	var failures []*FileError
	for _, location := range locations {
		r, err := s.Load(location)
		if err != nil {
			logging.App.Warn("Skipping unreadable player file", "location", location, "error", err)
			failures = append(failures, &FileError{Location: location, Err: err})
			continue
		}
		records = append(records, r)
	}

	logging.App.Debug("Listed players", "dir", s.PlayersDir, "loaded", len(records), "failed", len(failures))
	if len(failures) > 0 {
		return records, &ListError{Failures: failures}
	}
	return records, nil
}

// recordFiles returns the record file names in the players directory,
// generated names in numeric order first, then the rest by name
func (s *FileSource) recordFiles() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.PlayersDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading players directory: %w", err)
	}

	var locations []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != RecordExt {
			continue
		}
		locations = append(locations, name)
	}

	sort.SliceStable(locations, func(i, j int) bool {
		ni, iok := recordNumber(locations[i])
		nj, jok := recordNumber(locations[j])
		switch {
		case iok && jok:
			return ni < nj
		case iok != jok:
			return iok
		}
		return locations[i] < locations[j]
	})
	return locations, nil
}

// nextLocation picks player_<N>.json with N one past both the number of
// record files and the highest N in use, so it never reuses a name after a
// deletion.
func (s *FileSource) nextLocation() (string, error) {
	locations, err := s.recordFiles()
	if err != nil {
		return "", err
	}
	next := len(locations)
	for _, location := range locations {
		if n, ok := recordNumber(location); ok && n > next {
			next = n
		}
	}
	return fmt.Sprintf("%s%d%s", RecordPrefix, next+1, RecordExt), nil
}

func recordNumber(location string) (int, bool) {
	if !strings.HasPrefix(location, RecordPrefix) || !strings.HasSuffix(location, RecordExt) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(location, RecordPrefix), RecordExt))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// atomicWrite writes content to a temp file next to path, syncs it and
// renames it over path. Readers never see a partial file.
func (s *FileSource) atomicWrite(path string, content []byte) error {
	tmp, err := afero.TempFile(s.fs, filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := s.fs.Chmod(tmpPath, 0644); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("setting file mode: %w", err)
	}

	if err := s.fs.Rename(tmpPath, path); err != nil {
		s.fs.Remove(tmpPath) // Clean up temp file on error
		return fmt.Errorf("replacing player file: %w", err)
	}
	return nil
}
