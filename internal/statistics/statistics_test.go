package statistics

import (
	"strings"
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want string
	}{
		{"bytes", 512, "512.0 B"},
		{"kilobytes", 1536, "1.5 KB"},
		{"megabytes", 1048576, "1.0 MB"},
		{"gigabytes", 1073741824, "1.0 GB"},
		{"terabytes", 1099511627776, "1.0 TB"},
		{"caps at largest unit", 1 << 62, "4194304.0 TB"},
		{"zero", 0, "0.0 B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSize(tt.size)
			if got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.size, got, tt.want)
			}
		})
	}
}

func TestConversionStatsAccumulation(t *testing.T) {
	stats := NewConversionStats()
	stats.AddSuccess(1500*time.Millisecond, 1000, 200)
	stats.AddSuccess(2*time.Second, 1500, 300)
	stats.AddFailure()

	if got := stats.SuccessCount(); got != 2 {
		t.Errorf("SuccessCount() = %d, want 2", got)
	}
	if got := stats.FailedCount(); got != 1 {
		t.Errorf("FailedCount() = %d, want 1", got)
	}
	if got := stats.TotalTime(); got != 3500*time.Millisecond {
		t.Errorf("TotalTime() = %v, want 3.5s", got)
	}

	orig, comp, ok := stats.TotalSizes()
	if !ok {
		t.Fatal("TotalSizes() ok = false after successes")
	}
	if orig != 2500 || comp != 500 {
		t.Errorf("TotalSizes() = (%d, %d), want (2500, 500)", orig, comp)
	}
}

func TestConversionStatsOrderIndependence(t *testing.T) {
	// Same multiset of calls in two different orders.
	a := NewConversionStats()
	a.AddSuccess(time.Second, 1000, 200)
	a.AddFailure()
	a.AddSuccess(2*time.Second, 1500, 300)

	b := NewConversionStats()
	b.AddFailure()
	b.AddSuccess(2*time.Second, 1500, 300)
	b.AddSuccess(time.Second, 1000, 200)

	if a.SuccessCount() != b.SuccessCount() || a.FailedCount() != b.FailedCount() {
		t.Error("counts differ between call orders")
	}
	if a.TotalTime() != b.TotalTime() {
		t.Error("total time differs between call orders")
	}
	aOrig, aComp, _ := a.TotalSizes()
	bOrig, bComp, _ := b.TotalSizes()
	if aOrig != bOrig || aComp != bComp {
		t.Error("byte totals differ between call orders")
	}
}

func TestConversionStatsSizesAbsentWithoutSuccess(t *testing.T) {
	stats := NewConversionStats()
	stats.AddFailure()
	stats.AddSkipped()

	if _, _, ok := stats.TotalSizes(); ok {
		t.Error("TotalSizes() ok = true with zero successes")
	}

	snap := stats.GetSnapshot()
	if snap.TotalOriginalSize != nil || snap.TotalCompressedSize != nil {
		t.Error("snapshot byte totals should be nil with zero successes")
	}
	if snap.FailedCount != 1 || snap.SkippedCount != 1 {
		t.Errorf("snapshot counts = (%d failed, %d skipped), want (1, 1)",
			snap.FailedCount, snap.SkippedCount)
	}
}

func TestGetSummary(t *testing.T) {
	stats := NewConversionStats()
	stats.AddSuccess(2*time.Second, 2000, 500)
	stats.AddSuccess(2*time.Second, 2000, 500)
	stats.AddFailure()
	stats.AddSkipped()

	summary := stats.GetSummary()
	for _, want := range []string{
		"Converted: 2 file(s)",
		"Failed: 1 file(s)",
		"Skipped: 1 file(s)",
		"Average time per image: 2.00s",
		"Overall compression: 75.0%",
		"Original size: 3.9 KB",
		"Compressed size: 1000.0 B",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestGetSummaryNoSuccesses(t *testing.T) {
	stats := NewConversionStats()
	stats.AddFailure()

	summary := stats.GetSummary()
	if strings.Contains(summary, "Original size") {
		t.Error("summary should omit byte totals with zero successes")
	}
	if strings.Contains(summary, "Average time") {
		t.Error("summary should omit average time with zero successes")
	}
}
