// Package journal records labeled sources so interrupted runs can resume.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bstardust/piclabel/internal/logger"
)

// DefaultFile is the journal file name used when no path is configured
const DefaultFile = ".piclabel-journal.json"

// Journal tracks labeled images for resumability
type Journal struct {
	mu           sync.Mutex
	path         string
	Entries      map[string]Entry `json:"entries"`
	lastSaveTime time.Time
	saveInterval time.Duration
	batchCount   int
	cancelSave   context.CancelFunc
	saveDone     chan struct{}
}

// Entry represents a journal entry for a labeled source
type Entry struct {
	Source    string    `json:"source"`
	Output    string    `json:"output"`
	URL       string    `json:"url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a new journal stored at path
func New(path string) *Journal {
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, DefaultFile)
		} else {
			path = DefaultFile
		}
	}

	logger.Debug("Using journal at %s", path)

	return &Journal{
		path:         path,
		Entries:      make(map[string]Entry),
		saveInterval: 30 * time.Second,
	}
}

// Path returns the journal file path
func (j *Journal) Path() string {
	return j.path
}

// Load loads the journal from disk. A missing file is an empty journal.
func (j *Journal) Load() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("No journal file found at %s, starting fresh", j.path)
		return nil
	}
	if err != nil {
		return err
	}

	var stored Journal
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	if stored.Entries != nil {
		j.Entries = stored.Entries
	}
	logger.Info("Loaded journal with %d entries from %s", len(j.Entries), j.path)

	return nil
}

// StartPeriodicSave flushes the journal every interval until ctx is done
// or StopPeriodicSave is called.
func (j *Journal) StartPeriodicSave(ctx context.Context, interval time.Duration) {
	saveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	j.mu.Lock()
	j.cancelSave = cancel
	j.saveDone = done
	j.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := j.Flush(); err != nil {
					logger.Error("Failed to perform periodic journal save: %v", err)
				}
			case <-saveCtx.Done():
				logger.Debug("Stopping periodic journal save")
				return
			}
		}
	}()
}

// StopPeriodicSave stops the goroutine started by StartPeriodicSave and
// waits for a save in progress to finish.
func (j *Journal) StopPeriodicSave() {
	j.mu.Lock()
	cancel, done := j.cancelSave, j.saveDone
	j.cancelSave, j.saveDone = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Save writes the journal unless it was written within the save interval
func (j *Journal) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if time.Since(j.lastSaveTime) < j.saveInterval {
		return nil
	}
	return j.write()
}

// Flush writes the journal now
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.write()
}

func (j *Journal) write() error {
	j.lastSaveTime = time.Now()

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("Failed to create journal directory: %v", err)
		return err
	}

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}

	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		logger.Error("Failed to write journal file: %v", err)
		return err
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return err
	}

	logger.Debug("Saved journal with %d entries to %s", len(j.Entries), j.path)
	return nil
}

// MarkLabeled records that key was labeled into output
func (j *Journal) MarkLabeled(key, output, url string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Entries[key] = Entry{
		Source:    key,
		Output:    output,
		URL:       url,
		Timestamp: time.Now(),
	}

	// Save after every 100 files
	j.batchCount++
	if j.batchCount >= 100 {
		j.batchCount = 0
		if err := j.write(); err != nil {
			logger.Error("Failed to save journal: %v", err)
		}
	}
}

// IsLabeled checks if key has been labeled before
func (j *Journal) IsLabeled(key string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, exists := j.Entries[key]
	return exists
}

// Clear removes all entries and writes the empty journal
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Entries = make(map[string]Entry)
	return j.write()
}

// Len returns the number of entries
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.Entries)
}

// ListCompleted returns the keys of all labeled sources, sorted
func (j *Journal) ListCompleted() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	completed := make([]string, 0, len(j.Entries))
	for key := range j.Entries {
		completed = append(completed, key)
	}
	sort.Strings(completed)
	return completed
}
