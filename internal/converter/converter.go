package converter

import (
	"time"
)

// Request describes one conversion run. It is constructed once from the CLI
// or web layer and never mutated afterwards.
type Request struct {
	// Input is the file or directory to convert.
	Input string
	// Output is an explicit output path. Only honored in single-file mode;
	// directory mode ignores it with a warning.
	Output string
	// OutputFolder redirects all outputs into the given folder instead of
	// writing alongside the inputs. Created if absent.
	OutputFolder string
	// Quality is the encoder quality, 1-100.
	Quality int
	// Lossless forces lossless encoding; the effective quality becomes 100
	// regardless of the requested value.
	Lossless bool
	// Method is the encoder effort knob, 0 (fastest) to 6 (best compression).
	Method int
	// Recursive walks subdirectories in directory mode.
	Recursive bool
	// KeepMetadata copies EXIF data from JPEG/TIFF sources into the output.
	KeepMetadata bool
}

// Outcome describes one successfully converted file.
type Outcome struct {
	OriginalSize   int64
	CompressedSize int64
	Elapsed        time.Duration
}

// CompressionRatio returns the size reduction as a percentage of the
// original size. Negative when the output grew.
func (o *Outcome) CompressionRatio() float64 {
	if o.OriginalSize == 0 {
		return 0
	}
	return (1 - float64(o.CompressedSize)/float64(o.OriginalSize)) * 100
}

// Converter converts a single image file to WebP.
type Converter interface {
	// ConvertFile decodes inputPath, encodes it to WebP and writes the
	// result to outputPath, returning size and timing measurements.
	ConvertFile(inputPath, outputPath string) (*Outcome, error)
}
