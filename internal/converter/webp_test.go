package converter

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepteams/webp"
	"github.com/sirupsen/logrus"
)

// writeTestPNG writes a small gradient PNG and returns its path.
func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 0x80, A: 0xff})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	input := writeTestPNG(t, dir, "gradient.png")
	output := filepath.Join(dir, "gradient.webp")

	conv := NewWebPConverter(80, false, 4, testLogger())
	outcome, err := conv.ConvertFile(input, output)
	if err != nil {
		t.Fatalf("ConvertFile() error: %v", err)
	}

	if outcome.OriginalSize <= 0 {
		t.Errorf("OriginalSize = %d, want > 0", outcome.OriginalSize)
	}
	if outcome.CompressedSize <= 0 {
		t.Errorf("CompressedSize = %d, want > 0", outcome.CompressedSize)
	}
	if outcome.Elapsed < 0 {
		t.Errorf("Elapsed = %v, want >= 0", outcome.Elapsed)
	}

	// The produced file must be a decodable WebP of the same dimensions.
	f, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := webp.Decode(f)
	if err != nil {
		t.Fatalf("output is not valid WebP: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("decoded dimensions = %dx%d, want 32x32", b.Dx(), b.Dy())
	}
}

func TestConvertFileLossless(t *testing.T) {
	dir := t.TempDir()
	input := writeTestPNG(t, dir, "gradient.png")
	output := filepath.Join(dir, "gradient.webp")

	conv := NewWebPConverter(10, true, 4, testLogger())
	if _, err := conv.ConvertFile(input, output); err != nil {
		t.Fatalf("ConvertFile() error: %v", err)
	}

	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestConvertFileCreatesOutputFolder(t *testing.T) {
	dir := t.TempDir()
	input := writeTestPNG(t, dir, "gradient.png")
	output := filepath.Join(dir, "out", "nested", "gradient.webp")

	conv := NewWebPConverter(80, false, 4, testLogger())
	if _, err := conv.ConvertFile(input, output); err != nil {
		t.Fatalf("ConvertFile() error: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output not written into created folder: %v", err)
	}
}

func TestConvertFileUndecodableInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(input, []byte("this is not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	conv := NewWebPConverter(80, false, 4, testLogger())
	_, err := conv.ConvertFile(input, filepath.Join(dir, "broken.webp"))
	if !IsKind(err, KindImageProcessing) {
		t.Errorf("error = %v, want KindImageProcessing", err)
	}
}

func TestConvertFileEmptyEncoderOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeTestPNG(t, dir, "gradient.png")
	output := filepath.Join(dir, "gradient.webp")

	// An encoder returning success without writing anything must surface as
	// an encoding error rather than producing a zero-byte file.
	conv := NewWebPConverter(80, false, 4, testLogger())
	conv.encode = func(w io.Writer, img image.Image, opts *webp.EncoderOptions) error {
		return nil
	}

	_, err := conv.ConvertFile(input, output)
	if !IsKind(err, KindEncoding) {
		t.Fatalf("error = %v, want KindEncoding", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("output file written despite empty encoder result")
	}
}

func TestEffectiveQuality(t *testing.T) {
	tests := []struct {
		name     string
		quality  int
		lossless bool
		want     int
	}{
		{"lossy keeps requested quality", 42, false, 42},
		{"lossless forces maximum", 42, true, 100},
		{"lossless overrides minimum", 1, true, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewWebPConverter(tt.quality, tt.lossless, 4, testLogger())
			if got := conv.EffectiveQuality(); got != tt.want {
				t.Errorf("EffectiveQuality() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateImage(t *testing.T) {
	dir := t.TempDir()

	good := writeTestPNG(t, dir, "ok.png")
	if err := ValidateImage(good); err != nil {
		t.Errorf("ValidateImage(valid png) = %v", err)
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateImage(bad); !IsKind(err, KindInvalidImage) {
		t.Errorf("ValidateImage(garbage) = %v, want KindInvalidImage", err)
	}

	if err := ValidateImage(filepath.Join(dir, "missing.png")); !IsKind(err, KindIO) {
		t.Errorf("ValidateImage(missing) = %v, want KindIO", err)
	}
}

func TestFlattenAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	img.Set(1, 1, color.NRGBA{R: 40, G: 50, B: 60, A: 128})

	flat := flattenAlpha(img)
	for i := 3; i < len(flat.Pix); i += 4 {
		if flat.Pix[i] != 0xff {
			t.Fatalf("pixel %d alpha = %d, want 255", i/4, flat.Pix[i])
		}
	}
	// RGB values under transparency are preserved, not composited away.
	if flat.Pix[0] != 10 || flat.Pix[1] != 20 || flat.Pix[2] != 30 {
		t.Errorf("RGB under transparency = (%d,%d,%d), want (10,20,30)",
			flat.Pix[0], flat.Pix[1], flat.Pix[2])
	}
}
