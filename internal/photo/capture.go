package photo

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifTimeLayout is the layout of EXIF DateTime* tags.
const exifTimeLayout = "2006:01:02 15:04:05"

// ErrMissingTimestamp is returned when a photo carries no capture time.
var ErrMissingTimestamp = errors.New("photo has no capture timestamp")

// Reader builds Records for photo files.
type Reader struct {
	// Location is the time zone the camera clock was set to. EXIF timestamps
	// carry no zone; nil means time.Local.
	Location *time.Location
	// UseModTime falls back to the file modification time when EXIF has no
	// timestamp.
	UseModTime bool
}

// Read extracts the capture time. Format and dimensions are filled in when
// the image header can be decoded and left empty otherwise; whether the file
// can actually be tagged is up to the metadata writer.
func (r Reader) Read(path string) (Record, error) {
	captured, source, err := r.captureTime(path)
	if err != nil {
		return Record{}, err
	}

	rec := Record{Path: path, CaptureTime: captured, TimeSource: source}
	if format, width, height, err := Inspect(path); err == nil {
		rec.Format, rec.Width, rec.Height = format, width, height
	}
	return rec, nil
}

// captureTime looks for EXIF DateTimeOriginal, then DateTime; falls back to
// file mod time when allowed.
func (r Reader) captureTime(path string) (time.Time, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	loc := r.Location
	if loc == nil {
		loc = time.Local
	}

	x, err := exif.Decode(f)
	if err == nil && x != nil {
		for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
			if t, ok := exifTime(x, name, loc); ok {
				return t, "exif", nil
			}
		}
	}

	if !r.UseModTime {
		return time.Time{}, "", fmt.Errorf("%w: %s", ErrMissingTimestamp, path)
	}

	info, err := f.Stat()
	if err != nil {
		return time.Time{}, "", err
	}
	return info.ModTime().In(loc), "modtime", nil
}

func exifTime(x *exif.Exif, name exif.FieldName, loc *time.Location) (time.Time, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return time.Time{}, false
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(exifTimeLayout, strings.TrimRight(s, "\x00 "), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
