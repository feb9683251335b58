package progress

import (
	"sync"
	"time"

	"github.com/bstardust/piclabel/internal/logger"
)

// Summary is the final tally of a run
type Summary struct {
	Total     int
	Completed int
	Skipped   int
	Errors    int
	Duration  time.Duration
}

// Reporter tracks and reports labeling progress
type Reporter struct {
	mu             sync.Mutex
	total          int
	completed      int
	skipped        int
	errors         int
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
}

// New creates a new progress reporter
func New() *Reporter {
	return &Reporter{
		updateInterval: 2 * time.Second,
	}
}

// Start initializes the reporter. total is 0 when unknown (watch mode).
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.completed = 0
	r.skipped = 0
	r.errors = 0
	r.startTime = time.Now()
	r.lastUpdateTime = r.startTime

	if total > 0 {
		logger.Info("Labeling %d images", total)
	}
}

// Complete marks an image as labeled
func (r *Reporter) Complete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	r.updateProgress()
}

// Skip marks an image as skipped
func (r *Reporter) Skip(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.skipped++
	logger.Debug("Skipping %s: already labeled", path)
	r.updateProgress()
}

// Error marks an image as failed
func (r *Reporter) Error(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors++
	r.updateProgress()
}

// Snapshot returns the current counts
func (r *Reporter) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary()
}

// Finish logs and returns the final summary
func (r *Reporter) Finish() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.summary()
	logger.Info("Labeling complete: %d labeled, %d skipped, %d errors in %s",
		s.Completed, s.Skipped, s.Errors, s.Duration.Round(time.Millisecond))
	return s
}

func (r *Reporter) summary() Summary {
	return Summary{
		Total:     r.total,
		Completed: r.completed,
		Skipped:   r.skipped,
		Errors:    r.errors,
		Duration:  time.Since(r.startTime),
	}
}

// updateProgress logs progress at most once per update interval
func (r *Reporter) updateProgress() {
	now := time.Now()
	if now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	processed := r.completed + r.skipped + r.errors

	if r.total <= 0 {
		logger.Info("Progress: %d processed (%d labeled, %d skipped, %d errors)",
			processed, r.completed, r.skipped, r.errors)
		return
	}

	percentage := float64(processed) / float64(r.total) * 100

	eta := "unknown"
	if processed > 0 {
		timePerFile := now.Sub(r.startTime) / time.Duration(processed)
		eta = (timePerFile * time.Duration(r.total-processed)).Round(time.Second).String()
	}

	logger.Info("Progress: %.1f%% (%d/%d, %d labeled, %d skipped, %d errors) ETA: %s",
		percentage, processed, r.total, r.completed, r.skipped, r.errors, eta)
}
