package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sentinel errors for input validation, matched with errors.Is.
var (
	ErrNotFound          = errors.New("audio: input file not found")
	ErrUnsupportedFormat = errors.New("audio: unsupported format")
)

// Formats the FunASR sidecar can decode. Anything else fails fast here
// rather than as an opaque sidecar error after uploading the file.
var supportedExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
}

// Resolve validates an input audio path: the file must exist, be a regular
// file, and carry a supported extension. Returns the cleaned path.
func Resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExts[ext] {
		return "", fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, ext, extList())
	}
	return filepath.Clean(path), nil
}

// Supported reports whether a path has a recognized audio extension, without
// touching the filesystem. Used by the inbox watcher to filter events.
func Supported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// Basename returns the file name without directory or extension, the stem
// used for output file naming.
func Basename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func extList() string {
	exts := make([]string, 0, len(supportedExts))
	for e := range supportedExts {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return strings.Join(exts, " ")
}
