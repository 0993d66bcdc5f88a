package tagger

import (
	"errors"
	"iter"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/electronjoe/geotag/internal/location"
	"github.com/electronjoe/geotag/internal/photo"
)

// RecordReader extracts the capture time and basic facts about a photo.
type RecordReader interface {
	Read(path string) (photo.Record, error)
}

// GPSWriter stores a position in a photo's metadata.
type GPSWriter interface {
	WriteGPS(path string, s location.Sample) error
}

// Options are the per-run switches of a Tagger.
type Options struct {
	SkipTagged bool
	DryRun     bool
}

// Tagger geotags photos one at a time against a loaded track.
type Tagger struct {
	matcher location.Matcher
	reader  RecordReader
	writer  GPSWriter
	opts    Options
	logger  zerolog.Logger
	hasGPS  func(path string) (bool, error)
}

// New creates a Tagger. hasGPS is consulted only when opts.SkipTagged is set.
func New(matcher location.Matcher, reader RecordReader, writer GPSWriter, hasGPS func(string) (bool, error),
	opts Options, logger zerolog.Logger) *Tagger {
	return &Tagger{
		matcher: matcher,
		reader:  reader,
		writer:  writer,
		opts:    opts,
		logger:  logger,
		hasGPS:  hasGPS,
	}
}

// Outcome is the result of processing one photo.
type Outcome int

const (
	Tagged Outcome = iota
	Skipped
	NoMatch
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Tagged:
		return "tagged"
	case Skipped:
		return "skipped"
	case NoMatch:
		return "no match"
	default:
		return "failed"
	}
}

// Summary counts the outcomes of a run.
type Summary struct {
	Total   int
	Tagged  int
	Skipped int
	NoMatch int
	Failed  int
}

func (s *Summary) add(o Outcome) {
	s.Total++
	switch o {
	case Tagged:
		s.Tagged++
	case Skipped:
		s.Skipped++
	case NoMatch:
		s.NoMatch++
	default:
		s.Failed++
	}
}

// Failures is the number of photos that could not be tagged.
func (s Summary) Failures() int {
	return s.NoMatch + s.Failed
}

// ExitCode is 0 when every photo was tagged or deliberately skipped, 1 otherwise.
func (s Summary) ExitCode() int {
	if s.Failures() > 0 {
		return 1
	}
	return 0
}

// Run processes every file of the sequence in order. Per-file errors are
// logged and counted; they never stop the run.
func (t *Tagger) Run(files iter.Seq2[string, error]) Summary {
	var sum Summary
	for path, err := range files {
		if err != nil {
			t.logger.Error().Err(err).Msg("Failed to list photo")
			sum.add(Failed)
			continue
		}
		sum.add(t.Process(path))
	}

	t.logger.Info().
		Int("total", sum.Total).
		Int("tagged", sum.Tagged).
		Int("skipped", sum.Skipped).
		Int("no_match", sum.NoMatch).
		Int("failed", sum.Failed).
		Msg("Run finished")
	return sum
}

// Process geotags a single photo and reports what happened.
func (t *Tagger) Process(path string) Outcome {
	log := t.logger.With().Str("file", path).Logger()

	if t.opts.SkipTagged && t.hasGPS != nil {
		tagged, err := t.hasGPS(path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read existing GPS")
			return Failed
		}
		if tagged {
			log.Info().Msg("Skipped: already has a GPS position")
			return Skipped
		}
	}

	rec, err := t.reader.Read(path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read photo")
		return Failed
	}
	log = log.With().
		Time("capture", rec.CaptureTime).
		Str("time_source", rec.TimeSource).
		Logger()

	match, err := t.matcher.Nearest(rec.CaptureTime)
	if errors.Is(err, location.ErrNoMatch) {
		log.Warn().
			Dur("gap", match.AbsGap()).
			Str("hours_away", hoursAway(match.AbsGap())).
			Msg("Not geotagged: no location close enough")
		return NoMatch
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to match location")
		return Failed
	}

	log = log.With().
		Float64("lat", match.Sample.Latitude).
		Float64("lon", match.Sample.Longitude).
		Dur("gap", match.AbsGap()).
		Str("hours_away", hoursAway(match.AbsGap())).
		Logger()

	if t.opts.DryRun {
		log.Info().Msg("Would geotag (dry run)")
		return Tagged
	}

	if err := t.writer.WriteGPS(path, match.Sample); err != nil {
		log.Error().Err(err).Msg("Failed to write GPS metadata")
		return Failed
	}

	log.Info().Msg("Geotagged")
	return Tagged
}

// hoursAway formats a gap the way the summary line reports it, e.g. "0.25".
func hoursAway(d time.Duration) string {
	return strconv.FormatFloat(d.Hours(), 'f', 2, 64)
}
