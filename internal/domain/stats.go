package domain

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// StatsCollector collects statistics about task group execution.
type StatsCollector struct {
	submitted    atomic.Int64
	completed    atomic.Int64
	subtasks     atomic.Int64
	totalLatency atomic.Int64 // nanoseconds, submit to complete
	startTime    time.Time
}

// Stats is a point-in-time copy of a StatsCollector.
type Stats struct {
	Submitted  int64
	Completed  int64
	Subtasks   int64
	AvgLatency time.Duration
	Uptime     time.Duration
}

// NewStatsCollector creates a new StatsCollector
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		startTime: time.Now(),
	}
}

// RecordSubmitted counts one submitted group.
func (sc *StatsCollector) RecordSubmitted() {
	sc.submitted.Add(1)
}

// RecordCompleted counts one completed group of n subtasks.
func (sc *StatsCollector) RecordCompleted(n int, latency time.Duration) {
	sc.completed.Add(1)
	sc.subtasks.Add(int64(n))
	sc.totalLatency.Add(int64(latency))
}

// GetStats returns the current statistics
func (sc *StatsCollector) GetStats() Stats {
	completed := sc.completed.Load()
	avg := time.Duration(0)
	if completed > 0 {
		avg = time.Duration(sc.totalLatency.Load() / completed)
	}
	return Stats{
		Submitted:  sc.submitted.Load(),
		Completed:  completed,
		Subtasks:   sc.subtasks.Load(),
		AvgLatency: avg,
		Uptime:     time.Since(sc.startTime),
	}
}

// PrintStats logs the current statistics.
func (sc *StatsCollector) PrintStats(logger zerolog.Logger) {
	s := sc.GetStats()
	logger.Info().
		Int64("submitted", s.Submitted).
		Int64("completed", s.Completed).
		Int64("subtasks", s.Subtasks).
		Dur("avg_latency", s.AvgLatency).
		Dur("uptime", s.Uptime).
		Msg("task group stats")
}

// ProgressBar renders group completion progress as a single terminal line.
type ProgressBar struct {
	out       io.Writer
	total     int
	completed int
	mu        sync.Mutex
}

// NewProgressBar creates a ProgressBar for totalGroups groups.
func NewProgressBar(out io.Writer, totalGroups int) *ProgressBar {
	return &ProgressBar{out: out, total: totalGroups}
}

// Increment records one more completed group and redraws the bar.
func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.completed++
	pb.print()
}

// print assumes mu is held.
func (pb *ProgressBar) print() {
	if pb.total <= 0 {
		return
	}
	done := min(pb.completed, pb.total)
	width := 50
	filled := width * done / pb.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	fmt.Fprintf(pb.out, "\rProgress: [%s] %.1f%% (%d/%d groups)",
		bar, float64(done)/float64(pb.total)*100, done, pb.total)
	if done >= pb.total {
		fmt.Fprintln(pb.out)
	}
}
