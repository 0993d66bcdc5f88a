package geotag

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// Position is a latitude/longitude pair in decimal degrees.
type Position struct {
	Latitude  float64
	Longitude float64
}

// ReadGPS returns the GPS position embedded in a photo. ok is false when the
// file has no EXIF data or no GPS tags; err is only set when the file cannot
// be opened.
func ReadGPS(path string) (pos Position, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Position{}, false, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil || x == nil {
		return Position{}, false, nil
	}

	lat, lon, err := x.LatLong()
	if err != nil {
		return Position{}, false, nil
	}
	return Position{Latitude: lat, Longitude: lon}, true, nil
}

// HasGPS reports whether the photo already carries a GPS position.
func HasGPS(path string) (bool, error) {
	_, ok, err := ReadGPS(path)
	return ok, err
}
