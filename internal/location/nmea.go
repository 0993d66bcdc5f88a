package location

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
)

// LoadNMEA reads a GPS logger track made of NMEA 0183 sentences.
func LoadNMEA(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nmea log: %w", err)
	}
	defer f.Close()

	return ParseNMEA(f)
}

// ParseNMEA builds a track from valid RMC fixes. A GGA sentence reporting the
// same time of day as the preceding fix supplies its altitude. Lines that are
// not NMEA or fail to parse are ignored.
func ParseNMEA(r io.Reader) (Track, error) {
	var samples []Sample
	last := -1

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}

		switch s := sentence.(type) {
		case nmea.RMC:
			if s.Validity != nmea.ValidRMC || !s.Date.Valid || !s.Time.Valid {
				continue
			}
			if err := validCoordinates(s.Latitude, s.Longitude); err != nil {
				continue
			}
			samples = append(samples, Sample{
				Time:      fixTime(s.Date, s.Time),
				Latitude:  s.Latitude,
				Longitude: s.Longitude,
			})
			last = len(samples) - 1
		case nmea.GGA:
			if last < 0 || !s.Time.Valid || samples[last].HasAltitude {
				continue
			}
			if sameTimeOfDay(samples[last].Time, s.Time) {
				samples[last].Altitude = s.Altitude
				samples[last].HasAltitude = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no valid RMC sentences", ErrParse)
	}
	return newTrack(samples), nil
}

// fixTime combines an RMC date and time into a UTC instant. Two-digit years
// from 80 up are taken as 19xx.
func fixTime(d nmea.Date, t nmea.Time) time.Time {
	year := 2000 + d.YY
	if d.YY >= 80 {
		year = 1900 + d.YY
	}
	return time.Date(year, time.Month(d.MM), d.DD,
		t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}

func sameTimeOfDay(ts time.Time, t nmea.Time) bool {
	return ts.Hour() == t.Hour &&
		ts.Minute() == t.Minute &&
		ts.Second() == t.Second &&
		ts.Nanosecond()/int(time.Millisecond) == t.Millisecond
}
