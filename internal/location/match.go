package location

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// NoLimit disables the time-gap check of a Matcher.
const NoLimit time.Duration = -1

// Match is the sample chosen for a query time.
type Match struct {
	Sample Sample
	// Gap is Sample.Time minus the query time; negative when the sample is earlier.
	Gap time.Duration
}

// AbsGap returns the unsigned distance between the sample and the query time.
// It saturates at the largest Duration instead of overflowing.
func (m Match) AbsGap() time.Duration {
	switch {
	case m.Gap == math.MinInt64:
		return math.MaxInt64
	case m.Gap < 0:
		return -m.Gap
	}
	return m.Gap
}

// saturated reports whether Gap was clamped by time.Time.Sub, i.e. the real
// distance is about 292 years or more and cannot be represented.
func (m Match) saturated() bool {
	return m.Gap == math.MinInt64 || m.Gap == math.MaxInt64
}

// Matcher finds the sample closest in time to a query. A negative MaxGap
// accepts any distance; otherwise matches further than MaxGap away fail with
// ErrNoMatch, so a MaxGap of zero only accepts exact timestamps.
type Matcher struct {
	Track  Track
	MaxGap time.Duration
}

// Nearest returns the sample whose time is closest to t. When t lies exactly
// halfway between two samples the earlier one wins.
func (m Matcher) Nearest(t time.Time) (Match, error) {
	n := len(m.Track)
	if n == 0 {
		return Match{}, fmt.Errorf("%w: empty track", ErrNoMatch)
	}

	// First sample not before t.
	pos := sort.Search(n, func(i int) bool {
		return !m.Track[i].Time.Before(t)
	})

	var best Sample
	switch {
	case pos == 0:
		best = m.Track[0]
	case pos == n:
		best = m.Track[n-1]
	default:
		before, after := m.Track[pos-1], m.Track[pos]
		if after.Time.Sub(t) < t.Sub(before.Time) {
			best = after
		} else {
			best = before
		}
	}

	match := Match{Sample: best, Gap: best.Time.Sub(t)}
	if m.MaxGap >= 0 && (match.saturated() || match.AbsGap() > m.MaxGap) {
		return match, fmt.Errorf("%w: nearest sample is %s away (limit %s)", ErrNoMatch, match.AbsGap(), m.MaxGap)
	}
	return match, nil
}
