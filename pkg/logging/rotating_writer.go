package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// RotatingWriter is a log file writer that moves the file to
// old/<basename>.YYYYMMDD-HHMMSS once it grows past maxSize.
type RotatingWriter struct {
	mu         sync.Mutex
	fs         afero.Fs
	f          afero.File
	path       string
	dir        string
	base       string
	maxSize    int64
	approxSize int64
	now        func() time.Time
}

// NewRotatingWriter opens path for appending, rotating first if the
// existing file is already over maxSize
func NewRotatingWriter(fs afero.Fs, path string, maxSize int64) (*RotatingWriter, error) {
	w := &RotatingWriter{
		fs:      fs,
		path:    path,
		dir:     filepath.Dir(path),
		base:    filepath.Base(path),
		maxSize: maxSize,
		now:     time.Now,
	}

	if err := w.openForAppendLocked(); err != nil {
		return nil, err
	}
	if w.approxSize >= w.maxSize {
		if err := w.rotateLocked(); err != nil {
			w.f.Close()
			return nil, err
		}
	}
	return w, nil
}

// Write implements io.Writer
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, os.ErrClosed
	}
	if w.approxSize > 0 && w.approxSize+int64(len(p)) > w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := w.f.Write(p)
	w.approxSize += int64(n)
	return n, err
}

// Sync flushes the current file
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

// Close closes the current file
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) openForAppendLocked() error {
	if err := w.fs.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := w.fs.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.f = f
	w.approxSize = fi.Size()
	return nil
}

// rotateLocked archives the current file under old/ and starts a new one
func (w *RotatingWriter) rotateLocked() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}

	oldDir := filepath.Join(w.dir, "old")
	if err := w.fs.MkdirAll(oldDir, 0755); err != nil {
		return fmt.Errorf("creating old/ directory: %w", err)
	}

	archivePath := filepath.Join(oldDir, fmt.Sprintf("%s.%s", w.base, w.now().Format("20060102-150405")))
	for i := 1; ; i++ {
		if _, err := w.fs.Stat(archivePath); os.IsNotExist(err) {
			break
		}
		archivePath = filepath.Join(oldDir, fmt.Sprintf("%s.%s.%d", w.base, w.now().Format("20060102-150405"), i))
	}
	if err := w.fs.Rename(w.path, archivePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("archiving log file: %w", err)
	}

	f, err := w.fs.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating new log file: %w", err)
	}
	w.f = f
	w.approxSize = 0
	return nil
}
