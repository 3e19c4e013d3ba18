package pipeline

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "clauses", 10)

	tracker.Start(100)
	assert.True(t, tracker.started, "should be started")

	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	elapsed := tracker.Elapsed()
	assert.Greater(t, elapsed, time.Duration(0), "elapsed time should be positive")

	output := buf.String()
	assert.Contains(t, output, "100/100 clauses", "should show completion")
	assert.Contains(t, output, "100.0%", "should show 100%")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "clauses", 10)

	tracker.Start(100)
	tracker.Increment(75)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "100/100", "finish should set to total")
	assert.True(t, strings.HasSuffix(output, "\n"), "finish should print newline")
	assert.Zero(t, tracker.Elapsed(), "finished tracker is stopped")
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "clauses", 10)

	tracker.Start(0)
	tracker.Finish()

	assert.Contains(t, buf.String(), "0/0", "should handle zero total")
}

func TestProgressTracker_IncrementBeyondTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "clauses", 1)

	tracker.Start(10)
	tracker.Increment(50)

	assert.Equal(t, 10, tracker.current, "should cap at total")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "clauses", 1)

	tracker.Increment(5)
	tracker.Finish()

	assert.Empty(t, buf.String(), "should not report before Start")
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "clauses", 50)

	tracker.Start(200)
	tracker.Increment(10)
	assert.Empty(t, buf.String(), "below interval should not report")

	tracker.Increment(40)
	assert.Contains(t, buf.String(), "50/200")
}

func TestProgressTracker_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, "clauses", 1000)
	tracker.Start(400)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tracker.Increment(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, tracker.current)
}
