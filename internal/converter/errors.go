package converter

import (
	"errors"
	"fmt"
)

// errEmptyEncoderOutput guards against an encoder that returns successfully
// without producing any payload.
var errEmptyEncoderOutput = errors.New("encoder produced empty result")

// Kind classifies a conversion failure. Errors raised while resolving the
// input root (KindInputNotFound, KindInvalidInputType, KindNoImagesFound,
// KindWalk) are fatal to the whole run; the remaining kinds occur per file
// and only fail the batch in single-file mode.
type Kind int

const (
	KindInputNotFound Kind = iota
	KindInvalidInputType
	KindInvalidImage
	KindInvalidFileName
	KindImageProcessing
	KindEncoding
	KindIO
	KindWalk
	KindNoImagesFound
)

// Error is a conversion failure tagged with its taxonomy kind, the path it
// relates to, and the lower-level cause where one exists.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInputNotFound:
		return fmt.Sprintf("input file or directory not found: %s", e.Path)
	case KindInvalidInputType:
		return fmt.Sprintf("invalid input type (neither file nor directory): %s", e.Path)
	case KindInvalidImage:
		return fmt.Sprintf("invalid or unsupported image file: %s", e.Path)
	case KindInvalidFileName:
		return fmt.Sprintf("invalid file name: %s", e.Path)
	case KindImageProcessing:
		return fmt.Sprintf("image processing failed for %s: %v", e.Path, e.Err)
	case KindEncoding:
		return fmt.Sprintf("encoding failed for %s: %v", e.Path, e.Err)
	case KindIO:
		return fmt.Sprintf("file I/O error for %s: %v", e.Path, e.Err)
	case KindWalk:
		return fmt.Sprintf("directory traversal error at %s: %v", e.Path, e.Err)
	case KindNoImagesFound:
		return fmt.Sprintf("no supported image files found in %s", e.Path)
	default:
		return fmt.Sprintf("conversion error for %s: %v", e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err or any error in its chain is an *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

func newError(kind Kind, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Err: cause}
}
