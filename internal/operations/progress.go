package operations

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker tracks how many items of a batch are done
type ProgressTracker struct {
	Name      string
	Total     int
	Current   int
	StartTime time.Time
	Message   string
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(name string, total int) *ProgressTracker {
	return &ProgressTracker{
		Name:      name,
		Total:     total,
		StartTime: time.Now(),
	}
}

// Increment increments the current progress by 1
func (p *ProgressTracker) Increment(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Current++
	p.Message = message
}

// GetProgress returns the current progress state
func (p *ProgressTracker) GetProgress() (current, total int, percentage float64, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Total > 0 {
		percentage = float64(p.Current) / float64(p.Total) * 100
	}

	return p.Current, p.Total, percentage, p.Message
}

// GetETA estimates the time remaining from the average rate so far
func (p *ProgressTracker) GetETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Current == 0 || p.Total == 0 {
		return "calculating..."
	}

	elapsed := time.Since(p.StartTime)
	rate := float64(p.Current) / elapsed.Seconds()
	if rate == 0 {
		return "calculating..."
	}

	return formatSeconds(float64(p.Total-p.Current) / rate)
}

// IsComplete returns true if every item is done
func (p *ProgressTracker) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.Current >= p.Total
}

// GetElapsedTimeString returns a formatted elapsed time string
func (p *ProgressTracker) GetElapsedTimeString() string {
	return formatSeconds(time.Since(p.StartTime).Seconds())
}

func formatSeconds(s float64) string {
	switch {
	case s < 60:
		return fmt.Sprintf("%.0f seconds", s)
	case s < 3600:
		return fmt.Sprintf("%.1f minutes", s/60)
	default:
		return fmt.Sprintf("%.1f hours", s/3600)
	}
}
