package converter

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// InputKind is the result of classifying an input path.
type InputKind int

const (
	InputFile InputKind = iota
	InputDirectory
)

// supportedExtensions is the fixed set of convertible source formats. WebP
// is deliberately absent: files already in WebP format are detected
// separately and skipped, never re-encoded.
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".tiff": {},
	".tif":  {},
	".gif":  {},
}

// ClassifyInput decides whether path names a regular file or a directory.
func ClassifyInput(path string) (InputKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, newError(KindInputNotFound, path, err)
		}
		return 0, newError(KindIO, path, err)
	}

	switch {
	case info.IsDir():
		return InputDirectory, nil
	case info.Mode().IsRegular():
		return InputFile, nil
	default:
		return 0, newError(KindInvalidInputType, path, nil)
	}
}

// IsSupportedExtension reports whether path has a convertible source
// extension. The check is case-insensitive and excludes .webp.
func IsSupportedExtension(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsWebPFile reports whether path already has a .webp extension,
// case-insensitively.
func IsWebPFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".webp")
}

// GenerateOutputPath returns the input path with its extension replaced by
// .webp.
func GenerateOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".webp"
}

// ResolveOutputPath returns the output path for inputPath. With an output
// folder set, the result keeps the input's base name inside that folder;
// otherwise the output lands alongside the input.
func ResolveOutputPath(inputPath, outputFolder string) (string, error) {
	if outputFolder == "" {
		return GenerateOutputPath(inputPath), nil
	}
	base := filepath.Base(inputPath)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", newError(KindInvalidFileName, inputPath, nil)
	}
	return filepath.Join(outputFolder, GenerateOutputPath(base)), nil
}

// FindImageFiles enumerates candidate files under dir in walk order.
// Candidates are regular files whose extension is either in the supported
// set or .webp; the latter are collected so the batch can report them as
// skipped. A traversal error aborts discovery for the whole directory and
// surfaces as a walk error.
func FindImageFiles(dir string, recursive bool) ([]string, error) {
	var files []string

	if recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return newError(KindWalk, path, err)
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if IsSupportedExtension(path) || IsWebPFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return files, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newError(KindWalk, dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if IsSupportedExtension(path) || IsWebPFile(path) {
			files = append(files, path)
		}
	}
	return files, nil
}
