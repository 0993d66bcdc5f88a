package geotag

import (
	"errors"
	"fmt"
	"math"

	"github.com/barasher/go-exiftool"

	"github.com/electronjoe/geotag/internal/location"
)

// ErrWrite is returned when GPS tags cannot be written to a photo.
var ErrWrite = errors.New("metadata write failed")

// BackupSuffix is the name exiftool appends to the untouched copy it keeps of
// a photo when backups are enabled.
const BackupSuffix = "_original"

// ExifWriter writes GPS tags through one long-running exiftool process.
type ExifWriter struct {
	et *exiftool.Exiftool
}

// NewExifWriter starts exiftool. An empty binary uses "exiftool" from PATH.
// With backup set, exiftool keeps the original of every photo it rewrites as
// <file>_original; an existing backup is left as it is. Without it photos
// are overwritten in place.
func NewExifWriter(binary string, backup bool) (*ExifWriter, error) {
	var opts []func(*exiftool.Exiftool) error
	if binary != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binary))
	}
	if backup {
		opts = append(opts, exiftool.BackupOriginal())
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &ExifWriter{et: et}, nil
}

// Close stops the exiftool process.
func (w *ExifWriter) Close() error {
	return w.et.Close()
}

// WriteGPS stores the sample's position in the photo's EXIF GPS IFD, in place.
// Only GPS tags are sent to exiftool; every other tag in the file is kept.
func (w *ExifWriter) WriteGPS(path string, s location.Sample) error {
	fm := exiftool.EmptyFileMetadata()
	fm.File = path
	setGPS(&fm, s)

	batch := []exiftool.FileMetadata{fm}
	w.et.WriteMetadata(batch)
	if batch[0].Err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, batch[0].Err)
	}
	return nil
}

// setGPS fills the EXIF GPS fields for s. EXIF stores unsigned magnitudes with
// a separate hemisphere reference.
func setGPS(fm *exiftool.FileMetadata, s location.Sample) {
	latRef, lonRef := Hemispheres(s.Latitude, s.Longitude)
	fm.SetFloat("GPSLatitude", math.Abs(s.Latitude))
	fm.SetString("GPSLatitudeRef", latRef)
	fm.SetFloat("GPSLongitude", math.Abs(s.Longitude))
	fm.SetString("GPSLongitudeRef", lonRef)

	if s.HasAltitude {
		ref := "Above Sea Level"
		if s.Altitude < 0 {
			ref = "Below Sea Level"
		}
		fm.SetFloat("GPSAltitude", math.Abs(s.Altitude))
		fm.SetString("GPSAltitudeRef", ref)
	}
}

// Hemispheres returns the EXIF reference letters for a position.
func Hemispheres(lat, lon float64) (latRef, lonRef string) {
	latRef, lonRef = "N", "E"
	if lat < 0 {
		latRef = "S"
	}
	if lon < 0 {
		lonRef = "W"
	}
	return latRef, lonRef
}
