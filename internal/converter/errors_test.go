package converter

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"input not found", newError(KindInputNotFound, "/x", nil), "not found: /x"},
		{"invalid type", newError(KindInvalidInputType, "/dev/null", nil), "neither file nor directory"},
		{"invalid image", newError(KindInvalidImage, "a.jpg", nil), "invalid or unsupported image"},
		{"invalid file name", newError(KindInvalidFileName, ".", nil), "invalid file name"},
		{"processing", newError(KindImageProcessing, "a.jpg", errors.New("bad header")), "bad header"},
		{"encoding", newError(KindEncoding, "a.jpg", errEmptyEncoderOutput), "empty result"},
		{"no images", newError(KindNoImagesFound, "/pics", nil), "no supported image files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := newError(KindEncoding, "a.jpg", errEmptyEncoderOutput)

	if !IsKind(err, KindEncoding) {
		t.Error("IsKind(err, KindEncoding) = false")
	}
	if IsKind(err, KindIO) {
		t.Error("IsKind(err, KindIO) = true for an encoding error")
	}

	// Wrapped errors are still matched through the chain.
	wrapped := fmt.Errorf("conversion failed: %w", err)
	if !IsKind(wrapped, KindEncoding) {
		t.Error("IsKind does not unwrap")
	}

	if IsKind(errors.New("plain"), KindEncoding) {
		t.Error("IsKind matched a non-taxonomy error")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fs.ErrPermission
	err := newError(KindWalk, "/pics", cause)

	if !errors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is cannot reach the wrapped cause")
	}
}
