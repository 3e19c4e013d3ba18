package pipeline

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports the progress of a long-running phase to a writer.
// It is safe for concurrent use.
type ProgressTracker struct {
	writer         io.Writer
	label          string
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a progress tracker.
// writer: where to write progress output (typically os.Stderr)
// label: unit of work shown in the output, e.g. "clauses"
// reportInterval: report progress every N items
func NewProgressTracker(writer io.Writer, label string, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		label:          label,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress towards total items.
func (p *ProgressTracker) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.total = total
	p.current = 0
	p.lastReported = 0
}

// Increment increases the current progress by delta.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current += delta
	if p.current > p.total {
		p.current = p.total
	}

	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

// Finish marks the phase as complete and prints final progress.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
	p.started = false
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / elapsed.Seconds()
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d %s (%.1f%%) - %.1f %s/s",
		p.current, p.total, p.label, percentage, rate, p.label)
}
