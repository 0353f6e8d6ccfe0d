package statistics

import (
	"fmt"
	"sync"
	"time"
)

// ConversionStats accumulates the results of one conversion run. It is owned
// by the batch orchestrator and safe for concurrent updates from the worker
// pool. Byte totals are lazily initialized: both are nil until the first
// success is recorded, and never nil afterwards.
type ConversionStats struct {
	mu sync.RWMutex

	successCount int
	failedCount  int
	skippedCount int

	totalTime           time.Duration
	totalOriginalSize   *int64
	totalCompressedSize *int64
}

// NewConversionStats returns an empty accumulator.
func NewConversionStats() *ConversionStats {
	return &ConversionStats{}
}

// AddSuccess records one converted file.
func (s *ConversionStats) AddSuccess(elapsed time.Duration, originalSize, compressedSize int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.successCount++
	s.totalTime += elapsed

	if s.totalOriginalSize == nil {
		s.totalOriginalSize = new(int64)
		s.totalCompressedSize = new(int64)
	}
	*s.totalOriginalSize += originalSize
	*s.totalCompressedSize += compressedSize
}

// AddFailure records one file that could not be converted.
func (s *ConversionStats) AddFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedCount++
}

// AddSkipped records one candidate that was already WebP.
func (s *ConversionStats) AddSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skippedCount++
}

// SuccessCount returns the number of successful conversions.
func (s *ConversionStats) SuccessCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.successCount
}

// FailedCount returns the number of failed conversions.
func (s *ConversionStats) FailedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failedCount
}

// SkippedCount returns the number of skipped candidates.
func (s *ConversionStats) SkippedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skippedCount
}

// TotalTime returns the accumulated conversion time across all successes.
func (s *ConversionStats) TotalTime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalTime
}

// TotalSizes returns the accumulated original and compressed byte totals.
// ok is false until at least one success has been recorded.
func (s *ConversionStats) TotalSizes() (original, compressed int64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.totalOriginalSize == nil {
		return 0, 0, false
	}
	return *s.totalOriginalSize, *s.totalCompressedSize, true
}

// Snapshot is a point-in-time copy of the aggregate, used by the web server
// for JSON responses.
type Snapshot struct {
	SuccessCount        int     `json:"success_count"`
	FailedCount         int     `json:"failed_count"`
	SkippedCount        int     `json:"skipped_count"`
	TotalTimeSeconds    float64 `json:"total_time_seconds"`
	TotalOriginalSize   *int64  `json:"total_original_size,omitempty"`
	TotalCompressedSize *int64  `json:"total_compressed_size,omitempty"`
}

// GetSnapshot returns a copy of the current aggregate state.
func (s *ConversionStats) GetSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		SuccessCount:     s.successCount,
		FailedCount:      s.failedCount,
		SkippedCount:     s.skippedCount,
		TotalTimeSeconds: s.totalTime.Seconds(),
	}
	if s.totalOriginalSize != nil {
		orig := *s.totalOriginalSize
		comp := *s.totalCompressedSize
		snap.TotalOriginalSize = &orig
		snap.TotalCompressedSize = &comp
	}
	return snap
}

// GetSummary returns a formatted summary of the run. Derived values (average
// time per file, overall compression ratio) are computed here from the final
// totals, never incrementally.
func (s *ConversionStats) GetSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := "Conversion Summary:\n"
	summary += fmt.Sprintf("  Converted: %d file(s)\n", s.successCount)
	if s.failedCount > 0 {
		summary += fmt.Sprintf("  Failed: %d file(s)\n", s.failedCount)
	}
	if s.skippedCount > 0 {
		summary += fmt.Sprintf("  Skipped: %d file(s) (already WebP)\n", s.skippedCount)
	}
	summary += fmt.Sprintf("  Total time: %.2fs\n", s.totalTime.Seconds())

	if s.successCount > 0 {
		summary += fmt.Sprintf("  Average time per image: %.2fs\n",
			s.totalTime.Seconds()/float64(s.successCount))
	}

	if s.totalOriginalSize != nil {
		orig := *s.totalOriginalSize
		comp := *s.totalCompressedSize
		if orig > 0 {
			ratio := (1 - float64(comp)/float64(orig)) * 100
			summary += fmt.Sprintf("  Overall compression: %.1f%%\n", ratio)
		}
		summary += fmt.Sprintf("  Original size: %s\n", FormatSize(orig))
		summary += fmt.Sprintf("  Compressed size: %s", FormatSize(comp))
	}

	return summary
}

// FormatSize returns a human-readable size. The largest unit keeping the
// scaled value below 1024 is chosen, rounded to one decimal place, capped
// at TB for arbitrarily large inputs.
func FormatSize(sizeBytes int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(sizeBytes)
	unitIndex := 0

	for size >= 1024 && unitIndex < len(units)-1 {
		size /= 1024
		unitIndex++
	}

	return fmt.Sprintf("%.1f %s", size, units[unitIndex])
}
