// Package output names and atomically writes labeled images.
package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/bstardust/piclabel/internal/logger"
	"github.com/google/uuid"
)

// NameLayout is the time layout of saved file names
const NameLayout = "2006-01-02_15-04-05"

const ext = ".jpg"

// Store saves images into a directory
type Store struct {
	dir string
	now func() time.Time

	// serializes name reservation between concurrent saves
	mu sync.Mutex
}

// New creates a store writing to dir
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// WithClock replaces time.Now for naming
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Dir returns the output directory
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under a timestamp name and returns the final path.
// The data is written to a temporary file first and renamed into place.
func (s *Store) Save(data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}

	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.nextName(s.now())
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move output into place: %w", err)
	}

	logger.Debug("Saved %d bytes to %s", len(data), path)
	return path, nil
}

// nextName returns the first free name for t, appending -1, -2... on collision
func (s *Store) nextName(t time.Time) (string, error) {
	base := t.Format(NameLayout)
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name += "-" + strconv.Itoa(i)
		}
		path := filepath.Join(s.dir, name+ext)
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", path, err)
		}
	}
}
