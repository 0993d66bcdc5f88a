package location

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

var (
	// ErrParse is returned when a location log is malformed or missing required fields.
	ErrParse = errors.New("malformed location log")
	// ErrNoMatch is returned when no sample lies within the allowed time gap.
	ErrNoMatch = errors.New("no location sample within tolerance")
)

// Sample is one timestamped position from a location log.
type Sample struct {
	Time        time.Time
	Latitude    float64
	Longitude   float64
	Altitude    float64
	HasAltitude bool
}

// Track is a sequence of samples sorted by time, oldest first.
type Track []Sample

// Start returns the time of the oldest sample, or the zero time for an empty track.
func (t Track) Start() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[0].Time
}

// End returns the time of the newest sample, or the zero time for an empty track.
func (t Track) End() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[len(t)-1].Time
}

// newTrack sorts samples by time. Samples sharing a timestamp keep their file order.
func newTrack(samples []Sample) Track {
	slices.SortStableFunc(samples, func(a, b Sample) int {
		return a.Time.Compare(b.Time)
	})
	return Track(samples)
}

// Load reads a location log from path. Files ending in .nmea, .log or .txt are
// read as NMEA 0183 sentences; anything else as a location-history JSON export.
func Load(path string) (Track, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nmea", ".log", ".txt":
		return LoadNMEA(path)
	default:
		return LoadJSON(path)
	}
}

func validCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %f out of range", lon)
	}
	return nil
}
