package location

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// e7 is the scale of the integer degree fields in a location-history export.
const e7 = 1e7

// historyEntry mirrors one element of the "locations" array of a Google
// location-history export (Records.json or the older Location History.json).
type historyEntry struct {
	Timestamp   string       `json:"timestamp"`
	TimestampMs *epochMillis `json:"timestampMs"`
	LatitudeE7  *int64       `json:"latitudeE7"`
	LongitudeE7 *int64       `json:"longitudeE7"`
	Altitude    *float64     `json:"altitude"`
}

type historyDocument struct {
	Locations []historyEntry `json:"locations"`
}

// epochMillis accepts milliseconds since the epoch either as a JSON number or
// as a decimal string, which is how older exports encode it.
type epochMillis int64

func (m *epochMillis) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("timestampMs %q: %w", s, err)
	}
	*m = epochMillis(v)
	return nil
}

// LoadJSON reads a location-history JSON export. The document may be an object
// with a "locations" array or a bare array of entries.
func LoadJSON(path string) (Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read location history: %w", err)
	}
	return ParseJSON(data)
}

// ParseJSON decodes a location-history document already held in memory.
func ParseJSON(data []byte) (Track, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrParse)
	}

	var entries []historyEntry
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
	case '{':
		var doc historyDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		entries = doc.Locations
	default:
		return nil, fmt.Errorf("%w: expected a JSON object or array", ErrParse)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no locations", ErrParse)
	}

	samples := make([]Sample, 0, len(entries))
	for i, e := range entries {
		s, err := e.sample()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrParse, i, err)
		}
		samples = append(samples, s)
	}
	return newTrack(samples), nil
}

func (e historyEntry) sample() (Sample, error) {
	var ts time.Time
	switch {
	case e.Timestamp != "":
		t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
		if err != nil {
			return Sample{}, fmt.Errorf("timestamp %q: %w", e.Timestamp, err)
		}
		ts = t
	case e.TimestampMs != nil:
		ts = time.UnixMilli(int64(*e.TimestampMs)).UTC()
	default:
		return Sample{}, fmt.Errorf("missing timestamp")
	}

	if e.LatitudeE7 == nil || e.LongitudeE7 == nil {
		return Sample{}, fmt.Errorf("missing latitudeE7/longitudeE7")
	}
	lat := float64(*e.LatitudeE7) / e7
	lon := float64(*e.LongitudeE7) / e7
	if err := validCoordinates(lat, lon); err != nil {
		return Sample{}, err
	}

	s := Sample{Time: ts, Latitude: lat, Longitude: lon}
	if e.Altitude != nil {
		s.Altitude = *e.Altitude
		s.HasAltitude = true
	}
	return s, nil
}
