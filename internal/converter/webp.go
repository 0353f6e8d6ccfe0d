package converter

import (
	"bytes"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepteams/webp"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
)

// WebPConverter converts single image files to WebP. Decoding is delegated
// to the imaging package, encoding to the webp package.
type WebPConverter struct {
	quality      int
	lossless     bool
	method       int
	keepMetadata bool
	logger       *logrus.Logger

	// encode is the encoder entry point, replaceable in tests.
	encode func(w io.Writer, img image.Image, opts *webp.EncoderOptions) error
}

// NewWebPConverter returns a converter with the given encoder settings.
func NewWebPConverter(quality int, lossless bool, method int, logger *logrus.Logger) *WebPConverter {
	return &WebPConverter{
		quality:  quality,
		lossless: lossless,
		method:   method,
		logger:   logger,
		encode:   webp.Encode,
	}
}

// SetKeepMetadata enables EXIF passthrough from JPEG/TIFF sources into the
// output WebP.
func (c *WebPConverter) SetKeepMetadata(keep bool) {
	c.keepMetadata = keep
}

// EffectiveQuality returns the quality actually passed to the encoder.
// Lossless mode always encodes at maximum quality regardless of the
// requested value.
func (c *WebPConverter) EffectiveQuality() int {
	if c.lossless {
		return 100
	}
	return c.quality
}

// ValidateImage checks that path decodes as an image without reading the
// full pixel data.
func ValidateImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return newError(KindIO, path, err)
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return newError(KindInvalidImage, path, err)
	}
	return nil
}

// ConvertFile converts one image to WebP and writes it to outputPath.
func (c *WebPConverter) ConvertFile(inputPath, outputPath string) (*Outcome, error) {
	start := time.Now()

	c.logger.Debugf("Encoding %s (quality %d, method %d, lossless %t)",
		inputPath, c.EffectiveQuality(), c.method, c.lossless)

	img, err := imaging.Open(inputPath)
	if err != nil {
		return nil, newError(KindImageProcessing, inputPath, err)
	}

	// Fixed 3-channel color model: alpha is discarded, not composited.
	rgb := flattenAlpha(img)

	opts := c.encoderOptions()
	if c.keepMetadata {
		opts.EXIF = extractEXIF(inputPath)
	}

	var buf bytes.Buffer
	if err := c.encode(&buf, rgb, opts); err != nil {
		return nil, newError(KindEncoding, inputPath, err)
	}
	// An encoder that "succeeds" with zero bytes produced a broken file.
	if buf.Len() == 0 {
		return nil, newError(KindEncoding, inputPath, errEmptyEncoderOutput)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, newError(KindIO, outputPath, err)
		}
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return nil, newError(KindIO, outputPath, err)
	}

	inputInfo, err := os.Stat(inputPath)
	if err != nil {
		return nil, newError(KindIO, inputPath, err)
	}
	outputInfo, err := os.Stat(outputPath)
	if err != nil {
		return nil, newError(KindIO, outputPath, err)
	}

	return &Outcome{
		OriginalSize:   inputInfo.Size(),
		CompressedSize: outputInfo.Size(),
		Elapsed:        time.Since(start),
	}, nil
}

// encoderOptions maps the converter settings onto the encoder's knobs,
// keeping the library defaults for everything else.
func (c *WebPConverter) encoderOptions() *webp.EncoderOptions {
	opts := webp.DefaultOptions()
	opts.Quality = float32(c.EffectiveQuality())
	opts.Lossless = c.lossless
	opts.Method = c.method
	return opts
}

// flattenAlpha returns img as an opaque NRGBA image. Transparent pixels keep
// their RGB values; only the alpha channel is dropped.
func flattenAlpha(img image.Image) *image.NRGBA {
	nrgba := imaging.Clone(img)
	for i := 3; i < len(nrgba.Pix); i += 4 {
		nrgba.Pix[i] = 0xff
	}
	return nrgba
}

// extractEXIF returns the raw EXIF blob from path, or nil when the file has
// none or the format does not carry EXIF.
func extractEXIF(path string) []byte {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".tif" && ext != ".tiff" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil
	}
	return x.Raw
}
