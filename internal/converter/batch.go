package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"webp-converter-go/internal/statistics"

	"github.com/sirupsen/logrus"
)

// ProgressFunc receives per-file events from a running batch. Used by the
// web server to stream progress to clients.
type ProgressFunc func(event, path, message string)

// Batch drives one conversion run: discovery, per-file conversion on a
// worker pool, and stats aggregation. A single file failing never aborts a
// directory batch; only input-root errors do.
type Batch struct {
	conv     Converter
	logger   *logrus.Logger
	stats    *statistics.ConversionStats
	workers  int
	progress ProgressFunc
}

// NewBatch returns a batch runner. workers values below 1 are clamped to 1,
// which reproduces the strictly sequential behavior.
func NewBatch(conv Converter, logger *logrus.Logger, stats *statistics.ConversionStats, workers int) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{
		conv:    conv,
		logger:  logger,
		stats:   stats,
		workers: workers,
	}
}

// SetProgressFunc installs a per-file event hook.
func (b *Batch) SetProgressFunc(fn ProgressFunc) {
	b.progress = fn
}

// Run executes the request. The returned error is nil when the batch
// completed, even if individual files failed; callers inspect the stats for
// per-file failures.
func (b *Batch) Run(ctx context.Context, req Request) error {
	kind, err := ClassifyInput(req.Input)
	if err != nil {
		return err
	}

	switch kind {
	case InputFile:
		return b.runSingleFile(req)
	default:
		return b.runDirectory(ctx, req)
	}
}

// runSingleFile converts exactly one file. Any conversion error is fatal
// since there is no batch to continue.
func (b *Batch) runSingleFile(req Request) error {
	if err := ValidateImage(req.Input); err != nil {
		return err
	}

	outputPath := req.Output
	if outputPath == "" {
		resolved, err := ResolveOutputPath(req.Input, req.OutputFolder)
		if err != nil {
			return err
		}
		outputPath = resolved
	}

	outcome, err := b.conv.ConvertFile(req.Input, outputPath)
	if err != nil {
		b.stats.AddFailure()
		return err
	}

	b.reportSuccess(req.Input, outputPath, outcome)
	b.stats.AddSuccess(outcome.Elapsed, outcome.OriginalSize, outcome.CompressedSize)
	return nil
}

// fileResult pairs a candidate with its conversion result, indexed so the
// report keeps discovery order even when completion order varies.
type fileResult struct {
	inputPath  string
	outputPath string
	outcome    *Outcome
	err        error
	skipped    bool
}

func (b *Batch) runDirectory(ctx context.Context, req Request) error {
	if req.Output != "" {
		b.logger.Warn("Output path is ignored when processing directories")
	}

	files, err := FindImageFiles(req.Input, req.Recursive)
	if err != nil {
		return err
	}

	// Already-WebP files only count toward the skip report, never toward
	// eligibility: a directory with nothing convertible is an error.
	eligible := 0
	for _, f := range files {
		if !IsWebPFile(f) {
			eligible++
		}
	}
	if eligible == 0 {
		return newError(KindNoImagesFound, req.Input, nil)
	}

	b.logger.Infof("Found %d image(s) to convert", eligible)

	results := b.convertAll(ctx, files, req.OutputFolder)

	// Fold into the aggregate sequentially, in discovery order.
	for _, res := range results {
		switch {
		case res.skipped:
			b.logger.Infof("Skipping %s (already WebP)", filepath.Base(res.inputPath))
			b.emit("skipped", res.inputPath, "already WebP")
			b.stats.AddSkipped()
		case res.err != nil:
			b.logger.Errorf("Error converting %s: %v", res.inputPath, res.err)
			b.emit("failed", res.inputPath, res.err.Error())
			b.stats.AddFailure()
		default:
			b.reportSuccess(res.inputPath, res.outputPath, res.outcome)
			b.stats.AddSuccess(res.outcome.Elapsed, res.outcome.OriginalSize, res.outcome.CompressedSize)
		}
	}

	return nil
}

// convertAll runs the conversions on a bounded worker pool. The returned
// slice is indexed by discovery order.
func (b *Batch) convertAll(ctx context.Context, files []string, outputFolder string) []fileResult {
	type job struct {
		index int
		path  string
	}
	type indexed struct {
		index int
		res   fileResult
	}

	jobs := make(chan job, len(files))
	out := make(chan indexed, len(files))

	var wg sync.WaitGroup
	wg.Add(b.workers)
	for w := 0; w < b.workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					out <- indexed{index: j.index, res: fileResult{
						inputPath: j.path,
						err:       fmt.Errorf("conversion canceled: %w", ctx.Err()),
					}}
					continue
				default:
				}
				out <- indexed{index: j.index, res: b.convertOne(j.path, outputFolder)}
			}
		}()
	}

	for i, path := range files {
		jobs <- job{index: i, path: path}
	}
	close(jobs)

	wg.Wait()
	close(out)

	results := make([]fileResult, len(files))
	for r := range out {
		results[r.index] = r.res
	}
	return results
}

// convertOne handles a single candidate inside a directory batch.
func (b *Batch) convertOne(inputPath, outputFolder string) fileResult {
	res := fileResult{inputPath: inputPath}

	if IsWebPFile(inputPath) {
		res.skipped = true
		return res
	}

	outputPath, err := ResolveOutputPath(inputPath, outputFolder)
	if err != nil {
		res.err = err
		return res
	}
	res.outputPath = outputPath

	outcome, err := b.conv.ConvertFile(inputPath, outputPath)
	if err != nil {
		res.err = err
		return res
	}
	res.outcome = outcome
	return res
}

func (b *Batch) reportSuccess(inputPath, outputPath string, outcome *Outcome) {
	b.logger.Infof("Converted %s -> %s (%s -> %s, %.1f%% smaller, %.2fs)",
		filepath.Base(inputPath),
		filepath.Base(outputPath),
		statistics.FormatSize(outcome.OriginalSize),
		statistics.FormatSize(outcome.CompressedSize),
		outcome.CompressionRatio(),
		outcome.Elapsed.Seconds())
	b.emit("converted", inputPath, fmt.Sprintf("%s -> %s",
		statistics.FormatSize(outcome.OriginalSize),
		statistics.FormatSize(outcome.CompressedSize)))
}

func (b *Batch) emit(event, path, message string) {
	if b.progress != nil {
		b.progress(event, path, message)
	}
}
