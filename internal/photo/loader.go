package photo

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/tiff"
)

// DefaultExtensions are the file types geotagged when no filter is configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".tif", ".tiff"}

// readBatch is how many directory entries are read at a time while enumerating.
const readBatch = 256

var (
	// ErrNotDirectory is returned when the photo path exists but is a file.
	ErrNotDirectory = errors.New("not a directory")
	// ErrUnsupported is returned for files whose image header cannot be decoded.
	ErrUnsupported = errors.New("unsupported image format")
)

// Record describes a photo being processed.
type Record struct {
	Path        string
	CaptureTime time.Time
	// TimeSource is "exif" or "modtime".
	TimeSource string
	Format     string
	Width      int
	Height     int
}

// Enumerate lists the files in dir whose extension is in exts, without
// descending into sub-directories. The directory is checked up front; a
// missing directory yields an error matching fs.ErrNotExist. The returned
// sequence reads the directory lazily, so files come in directory order,
// which is unspecified.
func Enumerate(dir string, exts []string) (iter.Seq2[string, error], error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("photo directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("photo directory %s: %w", dir, ErrNotDirectory)
	}

	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[NormalizeExtension(ext)] = struct{}{}
	}

	return func(yield func(string, error) bool) {
		d, err := os.Open(dir)
		if err != nil {
			yield("", fmt.Errorf("open photo directory: %w", err))
			return
		}
		defer d.Close()

		for {
			entries, err := d.ReadDir(readBatch)
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				if _, ok := allowed[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
					continue
				}
				if !yield(filepath.Join(dir, entry.Name()), nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("read photo directory: %w", err))
				return
			}
		}
	}, nil
}

// NormalizeExtension lower-cases ext and makes sure it starts with a dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Inspect uses image.DecodeConfig to get the format and dimensions without
// decoding the full image.
func Inspect(path string) (format string, width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, 0, fmt.Errorf("open file for inspection: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %s: %v", ErrUnsupported, path, err)
	}
	return format, cfg.Width, cfg.Height, nil
}
